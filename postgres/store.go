// Package postgres provides a PostgreSQL-backed checkpoint config store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/deepnoodle-ai/checkpoint"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS checkpoint_configs (
	name       TEXT PRIMARY KEY,
	config     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ConfigStore persists checkpoint configs in a checkpoint_configs table as
// JSONB. It implements checkpoint.ConfigStore and is safe for concurrent
// use to the extent the underlying *sql.DB is.
type ConfigStore struct {
	db *sql.DB
}

var _ checkpoint.ConfigStore = (*ConfigStore)(nil)

// NewConfigStore creates the backing table if needed and returns the store.
// The caller owns the database handle.
func NewConfigStore(ctx context.Context, db *sql.DB) (*ConfigStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if _, err := db.ExecContext(ctx, createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint_configs table: %w", err)
	}
	return &ConfigStore{db: db}, nil
}

// Open connects with the given lib/pq DSN and returns a ready store.
func Open(ctx context.Context, dsn string) (*ConfigStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return NewConfigStore(ctx, db)
}

func (s *ConfigStore) Get(ctx context.Context, name string) (*checkpoint.CheckpointConfig, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx,
		`SELECT config FROM checkpoint_configs WHERE name = $1`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checkpoint %q: %w", name, checkpoint.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read checkpoint config: %w", err)
	}
	config := checkpoint.NewCheckpointConfig("")
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *ConfigStore) Put(ctx context.Context, config *checkpoint.CheckpointConfig) error {
	if config == nil || config.Name == "" {
		return checkpoint.NewConfigError("cannot store a checkpoint without a name")
	}
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint config: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoint_configs (name, config, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET config = $2, updated_at = now()`,
		config.Name, data)
	if err != nil {
		return fmt.Errorf("failed to write checkpoint config: %w", err)
	}
	return nil
}

func (s *ConfigStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM checkpoint_configs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoint configs: %w", err)
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checkpoint names: %w", err)
	}
	return names, nil
}

func (s *ConfigStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoint_configs WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete checkpoint config: %w", err)
	}
	return nil
}
