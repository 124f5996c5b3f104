// Package mongo implements the repositories on MongoDB. Documents use the
// prefixed string ids as _id; uniqueness of videos per episode and projects
// per video is enforced with unique indexes.
package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reelstudio/internal/pkg/errors"
)

const (
	colVideos   = "videos"
	colProjects = "video_projects"
	colReviews  = "review_logs"
	colEpisodes = "episodes"
	colScripts  = "scripts"
	colVoices   = "voices"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Open connects to uri, pings the primary and ensures indexes on database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(2).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "mongo.open", "connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "mongo.open", "ping")
	}

	s := &Store{
		client: client,
		db:     client.Database(database),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colVideos: {{
			Keys:    bson.D{{Key: "episodeId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_episode"),
		}},
		colProjects: {{
			Keys:    bson.D{{Key: "videoId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_video"),
		}},
		colReviews: {{
			Keys:    bson.D{{Key: "videoId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("video_created"),
		}},
	}

	for col, idx := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrap(err, "mongo.indexes", "create indexes on "+col)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "mongo.ping", "database unreachable")
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// mapErr translates driver errors: no documents -> NotFound(resource, id),
// duplicate key -> Conflict.
func mapErr(err error, op, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, mongo.ErrNoDocuments):
		return errors.NotFound(resource, id)
	case mongo.IsDuplicateKeyError(err):
		return errors.WrapWithCode(err, errors.CodeConflict, op, resource+" already exists")
	default:
		return errors.Wrap(err, op, resource+" query failed")
	}
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
