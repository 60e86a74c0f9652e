package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGKV stores values in the kv_store table created by the postgres migrations.
type PGKV struct {
	db *pgxpool.Pool
}

func NewPGKV(db *pgxpool.Pool) *PGKV {
	return &PGKV{db: db}
}

func (r *PGKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *PGKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	_, err := r.db.Exec(ctx, query, key, value)
	return err
}
