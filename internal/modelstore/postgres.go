package modelstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sod/vtml/internal/predictor"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var _ Store = (*PostgresStore)(nil)

const createModelStateTable = `
	CREATE TABLE IF NOT EXISTS model_state (
		kind       TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createModelStateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create model_state table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, kind predictor.Kind) ([]byte, error) {
	const query = `SELECT payload FROM model_state WHERE kind = $1`

	var data []byte
	err := s.db.GetContext(ctx, &data, query, kind.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s model: %w", kind, err)
	}
	return data, nil
}

func (s *PostgresStore) Save(ctx context.Context, kind predictor.Kind, data []byte) error {
	const query = `
		INSERT INTO model_state (kind, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (kind) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query, kind.String(), data); err != nil {
		return fmt.Errorf("failed to save %s model: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}
