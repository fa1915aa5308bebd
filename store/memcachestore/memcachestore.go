// Package memcachestore provides a Memcache-backed httpcache.BytesStore
// built on github.com/bradfitz/gomemcache.
package memcachestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/meridiancache/httpcache"
)

// Store is an httpcache.BytesStore backed by one or more Memcache servers.
type Store struct {
	client *memcache.Client
	prefix string
}

// New returns a Store using the given Memcache server(s) with equal weight.
// A server listed multiple times receives a proportional share of weight.
func New(servers ...string) *Store {
	return NewWithClient(memcache.New(servers...))
}

// NewWithClient wraps an existing memcache.Client.
func NewWithClient(client *memcache.Client) *Store {
	return &Store{client: client, prefix: "httpcache:"}
}

// NewEntryStore wraps a memcache-backed Store as an httpcache.EntryStore.
func NewEntryStore(servers ...string) httpcache.EntryStore {
	return httpcache.EntryStoreFromBytes(New(servers...))
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, err := s.client.Get(s.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("memcachestore: get %q: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	item := &memcache.Item{Key: s.key(key), Value: data}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("memcachestore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if err := s.client.Delete(s.key(key)); err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil
		}
		return fmt.Errorf("memcachestore: remove %q: %w", key, err)
	}
	return nil
}
