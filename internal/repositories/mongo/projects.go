package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"reelstudio/internal/models"
)

func (s *Store) CreateProject(ctx context.Context, p *models.VideoProject) error {
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.Collection(colProjects).InsertOne(ctx, p)
	return mapErr(err, "projects.create", "project", p.VideoID)
}

func (s *Store) GetProjectByVideo(ctx context.Context, videoID string) (*models.VideoProject, error) {
	var p models.VideoProject
	err := s.db.Collection(colProjects).FindOne(ctx, bson.M{"videoId": videoID}).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "projects.get", "project", videoID)
	}
	return &p, nil
}

func projectSet(updatedBy string, fields bson.M) bson.M {
	if updatedBy != "" {
		fields["updatedBy"] = updatedBy
	}
	return bson.M{"$set": fields}
}

func (s *Store) UpdateProject(ctx context.Context, videoID string, doc models.ProjectJSON, updatedBy string) (*models.VideoProject, error) {
	var p models.VideoProject
	err := s.db.Collection(colProjects).FindOneAndUpdate(ctx,
		bson.M{"videoId": videoID},
		projectSet(updatedBy, bson.M{"projectJson": doc, "updatedAt": s.now()}),
		afterUpdate(),
	).Decode(&p)
	if err != nil {
		return nil, mapErr(err, "projects.update", "project", videoID)
	}
	return &p, nil
}

func (s *Store) SetProjectStatus(ctx context.Context, videoID string, status models.ProjectStatus, updatedBy string) error {
	res, err := s.db.Collection(colProjects).UpdateOne(ctx,
		bson.M{"videoId": videoID},
		projectSet(updatedBy, bson.M{"status": status, "updatedAt": s.now()}),
	)
	if err != nil {
		return mapErr(err, "projects.set_status", "project", videoID)
	}
	if res.MatchedCount == 0 {
		return mapErr(errNoMatch, "projects.set_status", "project", videoID)
	}
	return nil
}
