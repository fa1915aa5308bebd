// Package freecachestore provides a zero-GC-overhead in-memory
// httpcache.BytesStore built on github.com/coocood/freecache, suited to
// caches with millions of entries and a fixed memory ceiling.
package freecachestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"

	"github.com/meridiancache/httpcache"
)

// Store is an httpcache.BytesStore backed by a freecache.Cache.
type Store struct {
	cache *freecache.Cache
}

// New creates a Store with the given size in bytes (512KB minimum, enforced
// by freecache itself). Entries have no expiration and are only evicted
// under memory pressure (LRU).
func New(size int) *Store {
	return &Store{cache: freecache.NewCache(size)}
}

// NewEntryStore creates a freecache-backed Store of the given size and
// adapts it as an httpcache.EntryStore.
func NewEntryStore(size int) httpcache.EntryStore {
	return httpcache.EntryStoreFromBytes(New(size))
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("freecachestore: get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if err := s.cache.Set([]byte(key), data, 0); err != nil {
		return fmt.Errorf("freecachestore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

// EntryCount returns the number of entries currently held in the cache.
func (s *Store) EntryCount() int64 {
	return s.cache.EntryCount()
}

// HitRate returns the ratio of cache hits to total lookups.
func (s *Store) HitRate() float64 {
	return s.cache.HitRate()
}
