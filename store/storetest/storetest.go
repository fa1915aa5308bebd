// Package storetest provides shared conformance tests for
// httpcache.BytesStore and httpcache.EntryStore implementations, so every
// backend in store/ exercises the same behavioral contract.
package storetest

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/meridiancache/httpcache"
)

// MemoryBytesStore is a minimal in-memory httpcache.BytesStore, useful for
// testing a wrapping Store (compression, encryption, metrics, tiering)
// without standing up a real backend.
type MemoryBytesStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryBytesStore returns a ready, empty MemoryBytesStore.
func NewMemoryBytesStore() *MemoryBytesStore {
	return &MemoryBytesStore{data: make(map[string][]byte)}
}

func (m *MemoryBytesStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBytesStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *MemoryBytesStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// BytesStore exercises a httpcache.BytesStore implementation against its
// basic Get/Put/Remove contract. Call it from each backend's own test file
// with a freshly constructed, empty store.
func BytesStore(t *testing.T, store httpcache.BytesStore) {
	t.Helper()
	ctx := context.Background()
	key := "testKey"

	_, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get before put: %v", err)
	}
	if ok {
		t.Fatal("retrieved key before adding it")
	}

	val := []byte("some bytes")
	if err := store.Put(ctx, key, val); err != nil {
		t.Fatalf("put: %v", err)
	}

	retVal, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if !ok {
		t.Fatal("could not retrieve a value we just put")
	}
	if !bytes.Equal(retVal, val) {
		t.Fatalf("retrieved %q, want %q", retVal, val)
	}

	overwrite := []byte("different bytes")
	if err := store.Put(ctx, key, overwrite); err != nil {
		t.Fatalf("overwrite put: %v", err)
	}
	retVal, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if !ok || !bytes.Equal(retVal, overwrite) {
		t.Fatalf("overwrite not visible: got %q, ok=%v", retVal, ok)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if ok {
		t.Fatal("key still present after remove")
	}

	if err := store.Remove(ctx, "never-existed"); err != nil {
		t.Fatalf("remove of absent key should be a no-op, got: %v", err)
	}
}

// EntryStore exercises an httpcache.EntryStore implementation, including the
// Update compare-and-swap path.
func EntryStore(t *testing.T, store httpcache.EntryStore) {
	t.Helper()
	ctx := context.Background()
	key := "https://example.com/resource"

	_, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get before put: %v", err)
	}
	if ok {
		t.Fatal("retrieved entry before adding it")
	}

	entry := &httpcache.Entry{
		Status: 200,
		Reason: "OK",
		Headers: httpcache.HeaderList{
			{Name: "Content-Type", Value: "text/plain"},
		},
	}
	if err := store.Put(ctx, key, entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after put: %v", err)
	}
	if !ok {
		t.Fatal("could not retrieve an entry we just put")
	}
	if got.Status != 200 {
		t.Fatalf("status = %d, want 200", got.Status)
	}

	err = store.Update(ctx, key, 5, func(cur *httpcache.Entry, ok bool) (*httpcache.Entry, error) {
		if !ok {
			t.Fatal("update did not see the existing entry")
		}
		return cur.WithVariant("vary-key", "variant-cache-key"), nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if !ok {
		t.Fatal("entry disappeared after update")
	}
	if got.VariantMap == nil || got.VariantMap["vary-key"] != "variant-cache-key" {
		t.Fatalf("update was not persisted: %+v", got.VariantMap)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_, ok, err = store.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if ok {
		t.Fatal("entry still present after remove")
	}
}
