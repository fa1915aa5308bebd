// Package hazelcaststore provides a Hazelcast-backed httpcache.BytesStore
// built on github.com/hazelcast/hazelcast-go-client.
package hazelcaststore

import (
	"context"
	"fmt"

	hazelcast "github.com/hazelcast/hazelcast-go-client"

	"github.com/meridiancache/httpcache"
)

// Store is an httpcache.BytesStore backed by a Hazelcast distributed map.
type Store struct {
	m *hazelcast.Map
}

func key(k string) string {
	return "httpcache:" + k
}

// NewWithMap wraps an existing Hazelcast map.
func NewWithMap(m *hazelcast.Map) *Store {
	return &Store{m: m}
}

// NewEntryStore wraps a Hazelcast map as an httpcache.EntryStore.
func NewEntryStore(m *hazelcast.Map) httpcache.EntryStore {
	return httpcache.EntryStoreFromBytes(NewWithMap(m))
}

func (s *Store) Get(ctx context.Context, k string) ([]byte, bool, error) {
	val, err := s.m.Get(ctx, key(k))
	if err != nil {
		return nil, false, fmt.Errorf("hazelcaststore: get %q: %w", k, err)
	}
	if val == nil {
		return nil, false, nil
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, k string, data []byte) error {
	if err := s.m.Set(ctx, key(k), data); err != nil {
		return fmt.Errorf("hazelcaststore: put %q: %w", k, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, k string) error {
	if _, err := s.m.Remove(ctx, key(k)); err != nil {
		return fmt.Errorf("hazelcaststore: remove %q: %w", k, err)
	}
	return nil
}
