package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"reelstudio/internal/models"
)

func findByID[T any](ctx context.Context, s *Store, col, resource, id string) (*T, error) {
	var out T
	if err := s.db.Collection(col).FindOne(ctx, bson.M{"_id": id}).Decode(&out); err != nil {
		return nil, mapErr(err, "catalog."+resource, resource, id)
	}
	return &out, nil
}

func (s *Store) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	return findByID[models.Episode](ctx, s, colEpisodes, "episode", id)
}

func (s *Store) GetScript(ctx context.Context, id string) (*models.Script, error) {
	return findByID[models.Script](ctx, s, colScripts, "script", id)
}

func (s *Store) GetVoice(ctx context.Context, id string) (*models.Voice, error) {
	return findByID[models.Voice](ctx, s, colVoices, "voice", id)
}
