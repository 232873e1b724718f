package audit

import (
	"context"
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations holds the goose migrations for the PostgreSQL audit table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose should read.
const MigrationsDir = "migrations"

const insertEventQuery = `INSERT INTO audit_events
	(id, action, user_id, email, provider, result, error, request_id, ip, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// PostgresStorage writes events to the audit_events table.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a storage on top of an open pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Store(ctx context.Context, event Event) error {
	if _, err := s.pool.Exec(ctx, insertEventQuery, eventArgs(event)...); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func (s *PostgresStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(insertEventQuery, eventArgs(e)...)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func eventArgs(e Event) []any {
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return []any{
		e.ID, e.Action, e.UserID, e.Email, e.Provider, string(e.Result),
		e.Error, e.RequestID, e.IP, metadata, e.CreatedAt,
	}
}
