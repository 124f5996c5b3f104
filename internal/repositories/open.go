package repositories

import (
	"context"

	"reelstudio/internal/config"
	"reelstudio/internal/pkg/errors"
	"reelstudio/internal/repositories/memory"
	"reelstudio/internal/repositories/mongo"
	"reelstudio/internal/repositories/postgres"
)

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*mongo.Store)(nil)
	_ Store = (*memory.Store)(nil)
)

// Open connects the backend selected by DATABASE_DRIVER.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres", "":
		s, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "mongo":
		s, err := mongo.Open(ctx, cfg.URL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "memory":
		return memory.New(), nil

	default:
		return nil, errors.ValidationField("DATABASE_DRIVER", "unknown database driver: "+cfg.Driver)
	}
}
