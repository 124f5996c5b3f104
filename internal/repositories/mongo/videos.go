package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"reelstudio/internal/models"
	"reelstudio/internal/pkg/errors"
)

func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	now := s.now()
	v.CreatedAt, v.UpdatedAt = now, now

	_, err := s.db.Collection(colVideos).InsertOne(ctx, v)
	return mapErr(err, "videos.create", "video", v.ID)
}

func (s *Store) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	var v models.Video
	err := s.db.Collection(colVideos).FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err != nil {
		return nil, mapErr(err, "videos.get", "video", id)
	}
	return &v, nil
}

func (s *Store) FindVideoByEpisode(ctx context.Context, episodeID string) (*models.Video, error) {
	var v models.Video
	err := s.db.Collection(colVideos).FindOne(ctx, bson.M{"episodeId": episodeID}).Decode(&v)
	if err != nil {
		return nil, mapErr(err, "videos.find_by_episode", "video", "episode "+episodeID)
	}
	return &v, nil
}

func (s *Store) updateVideo(ctx context.Context, op string, filter, update bson.M) (*models.Video, error) {
	var v models.Video
	err := s.db.Collection(colVideos).FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&v)
	if err != nil {
		return nil, mapErr(err, op, "video", filter["_id"].(string))
	}
	return &v, nil
}

func (s *Store) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) (*models.Video, error) {
	return s.updateVideo(ctx, "videos.set_status",
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": s.now()}},
	)
}

func (s *Store) BeginRerender(ctx context.Context, id string, staleBefore time.Time) (*models.Video, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.StatusAIProcessing}}
	if !staleBefore.IsZero() {
		filter = bson.M{"_id": id, "$or": bson.A{
			bson.M{"status": bson.M{"$ne": models.StatusAIProcessing}},
			bson.M{"updatedAt": bson.M{"$lt": staleBefore}},
		}}
	}
	v, err := s.updateVideo(ctx, "videos.begin_rerender",
		filter,
		bson.M{
			"$set":   bson.M{"status": models.StatusAIProcessing, "updatedAt": s.now()},
			"$unset": bson.M{"error": ""},
		},
	)
	if err == nil || !errors.IsNotFound(err) {
		return v, err
	}

	if _, getErr := s.GetVideo(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, errors.Conflict("video is already rendering: " + id)
}

func (s *Store) CompleteRender(ctx context.Context, id, videoURL, thumbnailURL string) error {
	_, err := s.updateVideo(ctx, "videos.complete_render",
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"status":       models.StatusDraftReady,
				"videoUrl":     videoURL,
				"thumbnailUrl": thumbnailURL,
				"updatedAt":    s.now(),
			},
			"$unset": bson.M{"error": ""},
		},
	)
	return err
}

func (s *Store) FailRender(ctx context.Context, id, msg string) error {
	_, err := s.updateVideo(ctx, "videos.fail_render",
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"status": models.StatusFailed, "error": msg, "updatedAt": s.now()},
			"$unset": bson.M{"videoUrl": "", "thumbnailUrl": ""},
		},
	)
	return err
}
