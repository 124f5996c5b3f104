package postgres

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes mapErr distinguishes.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateUndefinedTable  = "42P01"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
