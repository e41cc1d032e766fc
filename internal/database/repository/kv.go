package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// KVRepo handles the kv_store table.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo { return &KVRepo{db: db} }

func (r *KVRepo) Upsert(ctx context.Context, key string, value []byte, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO kv_store(key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
	`, key, value, at.UTC().Format(time.RFC3339))
	return err
}

// Get returns the stored value; found is false when the key is absent.
func (r *KVRepo) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	row := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}
