// Package diskvstore provides a disk-backed httpcache.BytesStore built on
// github.com/peterbourgon/diskv.
package diskvstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/peterbourgon/diskv"

	"github.com/meridiancache/httpcache"
)

// Store is an httpcache.BytesStore backed by a diskv key-value store,
// sharding entries across files under a base path with an in-memory LRU
// layer on top.
type Store struct {
	d *diskv.Diskv
}

// New returns a Store that writes files under basePath, with a 100MB
// in-memory cache layer.
func New(basePath string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			CacheSizeMax: 100 * 1024 * 1024,
		}),
	}
}

// NewWithDiskv wraps an already-configured diskv.Diskv.
func NewWithDiskv(d *diskv.Diskv) *Store {
	return &Store{d: d}
}

// NewEntryStore creates a diskv-backed Store under basePath and adapts it as
// an httpcache.EntryStore.
func NewEntryStore(basePath string) httpcache.EntryStore {
	return httpcache.EntryStoreFromBytes(New(basePath))
}

// filename hashes the cache key so arbitrary characters in it never collide
// with diskv's filesystem path rules.
func filename(key string) string {
	h := sha256.New()
	_, _ = io.WriteString(h, key)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := s.d.Read(filename(key))
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if err := s.d.WriteStream(filename(key), bytes.NewReader(data), true); err != nil {
		return fmt.Errorf("diskvstore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if err := s.d.Erase(filename(key)); err != nil {
		return nil
	}
	return nil
}
