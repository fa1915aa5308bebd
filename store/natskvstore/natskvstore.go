// Package natskvstore provides a NATS JetStream Key/Value-backed
// httpcache.BytesStore built on github.com/nats-io/nats.go.
package natskvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/meridiancache/httpcache"
)

// Config holds the configuration for a NATS K/V-backed Store.
type Config struct {
	// NATSUrl is the URL of the NATS server. Defaults to nats.DefaultURL.
	NATSUrl string
	// Bucket is the name of the K/V bucket to use for caching. Required.
	Bucket string
	// Description is an optional description for the K/V bucket.
	Description string
	// TTL is the time-to-live for cache entries. Zero means entries don't
	// expire via the bucket's own policy.
	TTL time.Duration
	// NATSOptions are additional options passed to nats.Connect.
	NATSOptions []nats.Option
}

// Store is an httpcache.BytesStore backed by a NATS JetStream K/V bucket.
type Store struct {
	kv jetstream.KeyValue
	nc *nats.Conn
}

// key prefixes an httpcache key to avoid collision with unrelated data in
// the same bucket.
func key(k string) string {
	return "httpcache." + k
}

// New connects to NATS, opens a JetStream context, and creates or updates
// the configured K/V bucket. The returned Store owns the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("natskvstore: Bucket is required")
	}

	url := cfg.NATSUrl
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url, cfg.NATSOptions...)
	if err != nil {
		return nil, fmt.Errorf("natskvstore: connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskvstore: jetstream: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: cfg.Description,
		TTL:         cfg.TTL,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natskvstore: create bucket: %w", err)
	}

	return &Store{kv: kv, nc: nc}, nil
}

// NewWithKeyValue wraps an already-created K/V bucket whose connection
// lifecycle the caller manages; Close becomes a no-op.
func NewWithKeyValue(kv jetstream.KeyValue) *Store {
	return &Store{kv: kv}
}

// NewEntryStore connects to NATS per cfg and adapts the resulting bucket as
// an httpcache.EntryStore.
func NewEntryStore(ctx context.Context, cfg Config) (httpcache.EntryStore, error) {
	s, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) Get(ctx context.Context, k string) ([]byte, bool, error) {
	entry, err := s.kv.Get(ctx, key(k))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("natskvstore: get %q: %w", k, err)
	}
	return entry.Value(), true, nil
}

func (s *Store) Put(ctx context.Context, k string, data []byte) error {
	if _, err := s.kv.Put(ctx, key(k), data); err != nil {
		return fmt.Errorf("natskvstore: put %q: %w", k, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, k string) error {
	if err := s.kv.Delete(ctx, key(k)); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("natskvstore: remove %q: %w", k, err)
	}
	return nil
}

// Close closes the underlying NATS connection, if this Store owns it.
func (s *Store) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}
