package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv_store (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type kvRow struct {
	Key       string         `db:"key"`
	Value     types.JSONText `db:"value"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// PostgresStateRepository persists snapshot parts in a JSONB key/value table.
type PostgresStateRepository struct {
	db *sqlx.DB
}

// NewPostgresStateRepository constructs the repository.
func NewPostgresStateRepository(db *sqlx.DB) *PostgresStateRepository {
	return &PostgresStateRepository{db: db}
}

// EnsureSchema creates the kv_store table when missing.
func (r *PostgresStateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("ensure kv_store schema: %w", err)
	}
	return nil
}

// Load reads the JSON value stored under key into dest.
func (r *PostgresStateRepository) Load(ctx context.Context, key string, dest interface{}) error {
	const query = `SELECT key, value, updated_at FROM kv_store WHERE key = $1`
	var row kvRow
	if err := r.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrStateNotFound
		}
		return fmt.Errorf("load state %s: %w", key, err)
	}
	if err := row.Value.Unmarshal(dest); err != nil {
		return fmt.Errorf("unmarshal state value for %s: %w", key, err)
	}
	return nil
}

const upsertKV = `INSERT INTO kv_store (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

func newKVRow(key string, value interface{}) (kvRow, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return kvRow{}, fmt.Errorf("marshal state value for %s: %w", key, err)
	}
	return kvRow{Key: key, Value: types.JSONText(payload), UpdatedAt: time.Now().UTC()}, nil
}

// SaveAll upserts every value inside one transaction. Either all keys are
// written or none are.
func (r *PostgresStateRepository) SaveAll(ctx context.Context, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]kvRow, 0, len(values))
	for _, key := range sortedKeys(values) {
		row, err := newKVRow(key, values[key])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, upsertKV, row); err != nil {
			return fmt.Errorf("save state %s: %w", row.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot save: %w", err)
	}
	commit = true
	return nil
}

// Ping verifies connectivity.
func (r *PostgresStateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
