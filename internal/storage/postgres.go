package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts the subset of pgxpool.Pool used by PostgresBackend.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// PostgresBackend stores cache entries in the cache_entries table.
type PostgresBackend struct {
	q Querier
}

// NewPostgresBackend constructs a PostgresBackend backed by the given pool.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{q: pool}
}

// NewPostgresBackendWithQuerier constructs a PostgresBackend with a custom Querier (for tests).
func NewPostgresBackendWithQuerier(q Querier) *PostgresBackend {
	return &PostgresBackend{q: q}
}

// Get returns nil, nil when key is not present.
func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM cache_entries WHERE key = $1`

	var value []byte
	if err := b.q.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying cache entry %s: %w", key, err)
	}
	return value, nil
}

// Put inserts or overwrites key.
func (b *PostgresBackend) Put(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO cache_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := b.q.Exec(ctx, q, key, value); err != nil {
		return fmt.Errorf("upserting cache entry %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity to the database.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.q.Ping(ctx)
}
