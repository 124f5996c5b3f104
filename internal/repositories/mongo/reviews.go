package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstudio/internal/models"
)

// errNoMatch makes an update that matched nothing read as NotFound.
var errNoMatch = mongo.ErrNoDocuments

func (s *Store) AppendReviewLog(ctx context.Context, l *models.ReviewLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	_, err := s.db.Collection(colReviews).InsertOne(ctx, l)
	return mapErr(err, "reviews.append", "review_log", l.ID)
}

func (s *Store) ListReviewLogs(ctx context.Context, videoID string) ([]models.ReviewLog, error) {
	cur, err := s.db.Collection(colReviews).Find(ctx,
		bson.M{"videoId": videoID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, mapErr(err, "reviews.list", "review_log", videoID)
	}
	defer cur.Close(ctx)

	var out []models.ReviewLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, mapErr(err, "reviews.list", "review_log", videoID)
	}
	return out, nil
}
