// Package leveldbstore provides a disk-backed httpcache.BytesStore built on
// github.com/syndtr/goleveldb.
package leveldbstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/meridiancache/httpcache"
)

// Store is an httpcache.BytesStore backed by an on-disk LevelDB database.
type Store struct {
	db *leveldb.DB
}

// New opens (or creates) a LevelDB database at path.
func New(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("leveldbstore: open %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open LevelDB database.
func NewWithDB(db *leveldb.DB) *Store {
	return &Store{db: db}
}

// NewEntryStore opens a LevelDB database at path and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(path string) (httpcache.EntryStore, error) {
	s, err := New(path)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("leveldbstore: get %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if err := s.db.Put([]byte(key), data, nil); err != nil {
		return fmt.Errorf("leveldbstore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("leveldbstore: remove %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
