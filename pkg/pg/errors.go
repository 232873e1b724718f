package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinels joined with pgx errors; match them with errors.Is.
var (
	ErrMissingURL = errors.New("pg: PG_CONN_URL is not set")
	ErrInvalidURL = errors.New("pg: malformed connection string")
	ErrConnect    = errors.New("pg: unable to open pool")
	ErrUnhealthy  = errors.New("pg: no usable connection")
	ErrMigrate    = errors.New("pg: migration failed")
)

const uniqueViolation = "23505"

// IsNotFoundError reports whether err wraps pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation
}
