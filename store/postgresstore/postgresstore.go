// Package postgresstore provides a PostgreSQL-backed httpcache.BytesStore
// built on github.com/jackc/pgx/v5.
package postgresstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridiancache/httpcache"
)

const (
	// DefaultTableName is the default table name for cache storage.
	DefaultTableName = "httpcache"
	// DefaultKeyPrefix is the default prefix for cache keys.
	DefaultKeyPrefix = "cache:"
)

// Config holds the configuration for a PostgreSQL-backed Store.
type Config struct {
	// TableName is the name of the table to store cache entries. Defaults
	// to DefaultTableName.
	TableName string
	// KeyPrefix is prepended to every cache key. Defaults to DefaultKeyPrefix.
	KeyPrefix string
	// Timeout bounds a database operation when ctx carries no deadline.
	// Defaults to 5s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TableName: DefaultTableName,
		KeyPrefix: DefaultKeyPrefix,
		Timeout:   5 * time.Second,
	}
}

// Store is an httpcache.BytesStore backed by a PostgreSQL table, holding one
// row per cache key with the encoded entry in a bytea column.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
	keyPrefix string
	timeout   time.Duration
}

// New opens a connection pool against connString, creates the cache table
// if it does not already exist, and returns a ready Store.
func New(ctx context.Context, connString string, cfg Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgresstore: connect: %w", err)
	}
	s := NewWithPool(pool, cfg)
	if err := s.createTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool wraps an existing connection pool. Unlike New it does not
// create the table, so the table named by cfg.TableName must already exist.
func NewWithPool(pool *pgxpool.Pool, cfg Config) *Store {
	defaults := DefaultConfig()
	if cfg.TableName == "" {
		cfg.TableName = defaults.TableName
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &Store{pool: pool, tableName: cfg.TableName, keyPrefix: cfg.KeyPrefix, timeout: cfg.Timeout}
}

// NewEntryStore opens a connection pool against connString and adapts it as
// an httpcache.EntryStore.
func NewEntryStore(ctx context.Context, connString string, cfg Config) (httpcache.EntryStore, error) {
	s, err := New(ctx, connString, cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var data []byte
	query := `SELECT data FROM ` + s.tableName + ` WHERE key = $1`
	err := s.pool.QueryRow(ctx, query, s.key(key)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("postgresstore: get %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO ` + s.tableName + ` (key, data, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET data = $2, created_at = $3
	`
	if _, err := s.pool.Exec(ctx, query, s.key(key), data, time.Now()); err != nil {
		return fmt.Errorf("postgresstore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `DELETE FROM ` + s.tableName + ` WHERE key = $1`
	if _, err := s.pool.Exec(ctx, query, s.key(key)); err != nil {
		return fmt.Errorf("postgresstore: remove %q: %w", key, err)
	}
	return nil
}

func (s *Store) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + s.tableName + ` (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := s.pool.Exec(ctx, query)
	return err
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
