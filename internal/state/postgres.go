package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBPool matches the methods from *pgxpool.Pool that the store uses.
// This allows mocking the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists key/value state in a single kv_state table.
type PostgresStore struct {
	pool DBPool
}

func NewPostgresStore(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

func (s *PostgresStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	row := s.pool.QueryRow(ctx, `SELECT value FROM kv_state WHERE namespace=$1 AND key=$2`, namespace, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("select kv_state: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Save(ctx context.Context, namespace string, kvs []KV) error {
	for _, kv := range kvs {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO kv_state(namespace, key, value)
			VALUES($1, $2, $3)
			ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
		`, namespace, kv.Key, kv.Value)
		if err != nil {
			return fmt.Errorf("upsert kv_state %s/%s: %w", namespace, kv.Key, err)
		}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_state WHERE namespace=$1 AND key=$2`, namespace, key)
	if err != nil {
		return fmt.Errorf("delete kv_state: %w", err)
	}
	return nil
}
