// Package redisstore provides a Redis-backed httpcache.BytesStore, built on
// github.com/redis/go-redis/v9.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridiancache/httpcache"
)

// Config holds the configuration for creating a Redis-backed store.
type Config struct {
	// Addr is the Redis server address (e.g. "localhost:6379"). Required.
	Addr string
	// Password for authentication. Optional.
	Password string
	// DB is the Redis logical database number. Optional, defaults to 0.
	DB int
	// DialTimeout bounds connection establishment. Optional, defaults to 5s.
	DialTimeout time.Duration
	// ReadTimeout and WriteTimeout bound per-command I/O. Optional,
	// default to 3s each.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PoolSize bounds the connection pool. Optional, go-redis default.
	PoolSize int
	// KeyPrefix is prepended to every cache key to avoid collisions with
	// unrelated data sharing the same Redis instance. Defaults to
	// "httpcache:".
	KeyPrefix string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "httpcache:",
	}
}

// Store is an httpcache.BytesStore backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
}

// New dials Redis and returns a ready-to-use Store.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redisstore: Addr is required")
	}
	defaults := DefaultConfig()
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}

	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// NewEntryStore wraps a Redis-backed Store as an httpcache.EntryStore.
func NewEntryStore(cfg Config) (httpcache.EntryStore, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redisstore: remove %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
