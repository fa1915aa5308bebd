package httpcache

import (
	"bytes"
	"context"
	"io"
)

// BytesStore is the minimal interface an out-of-process backend (Redis,
// Memcache, LevelDB, a SQL table, object storage, ...) must implement to
// back an EntryStore: get/put/remove against opaque byte slices produced by
// EncodeEntry. Wrapping backends (encryption, compression) also implement
// BytesStore, so they compose with any concrete backend underneath.
type BytesStore interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// byteResource is the Resource implementation used by stores built on
// EntryStoreFromBytes: the body is decoded once, alongside the entry, and
// held in memory for the life of the Resource.
type byteResource struct {
	data []byte
}

func (r *byteResource) Len() int64 { return int64(len(r.data)) }

func (r *byteResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

// bytesEntryStore adapts a BytesStore into an EntryStore using the
// EncodeEntry/DecodeEntry wire format (serialize.go).
type bytesEntryStore struct {
	backend BytesStore
}

// EntryStoreFromBytes adapts any BytesStore into an EntryStore by
// serializing through EncodeEntry/DecodeEntry. Every concrete backend
// subpackage (store/redisstore, store/memcachestore, ...) implements
// BytesStore and calls this to get a full EntryStore.
func EntryStoreFromBytes(backend BytesStore) EntryStore {
	return &bytesEntryStore{backend: backend}
}

func (s *bytesEntryStore) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	_, entry, body, err := DecodeEntry(data)
	if err != nil {
		return nil, false, err
	}
	if body != nil {
		entry.BodyRef = &byteResource{data: body}
	}
	return entry, true, nil
}

func (s *bytesEntryStore) Put(ctx context.Context, key string, entry *Entry) error {
	var body io.Reader
	if entry.BodyRef != nil {
		rc, err := entry.BodyRef.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		body = rc
	}
	data, err := EncodeEntry(key, entry, body)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, key, data)
}

func (s *bytesEntryStore) Remove(ctx context.Context, key string) error {
	return s.backend.Remove(ctx, key)
}

// Update implements EntryStore.Update as a bounded read-modify-write retry
// loop over the underlying BytesStore. A backend without native
// compare-and-swap still gets bounded-retry semantics; a backend that does
// support CAS natively (e.g. a SQL row version) should implement EntryStore
// directly instead of going through this adapter.
func (s *bytesEntryStore) Update(ctx context.Context, key string, maxRetries int, fn func(cur *Entry, ok bool) (*Entry, error)) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		cur, ok, err := s.Get(ctx, key)
		if err != nil {
			lastErr = err
			continue
		}
		next, err := fn(cur, ok)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		if err := s.Put(ctx, key, next); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrEntryUpdateConflict
}
