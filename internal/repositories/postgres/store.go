// Package postgres implements the repositories on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	_ "embed"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reelstudio/internal/pkg/errors"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *pgxpool.Pool
}

// Open connects, verifies the connection and applies the schema.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "postgres.open", "create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "postgres.open", "ping")
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Migrate creates missing tables and indexes. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "postgres.migrate", "apply schema")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "postgres.ping", "database unreachable")
	}
	return nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

// mapErr translates driver errors: no rows -> NotFound(resource, id),
// unique violation -> Conflict.
func mapErr(err error, op, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, pgx.ErrNoRows):
		return errors.NotFound(resource, id)
	case sqlState(err) == sqlStateUniqueViolation:
		return errors.WrapWithCode(err, errors.CodeConflict, op, resource+" already exists")
	case sqlState(err) == sqlStateUndefinedTable:
		return errors.WrapWithCode(err, errors.CodeUnavailable, op, "schema not migrated")
	default:
		return errors.Wrap(err, op, resource+" query failed")
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
