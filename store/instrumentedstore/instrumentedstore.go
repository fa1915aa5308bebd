// Package instrumentedstore wraps an httpcache.BytesStore with metrics
// recording via the metrics.Collector interface, so any backend (Redis,
// LevelDB, a disk cache) reports operation counts, latencies, and results
// through whichever collector the caller supplies (e.g.
// metrics/prometheus.Collector).
package instrumentedstore

import (
	"context"
	"time"

	"github.com/meridiancache/httpcache"
	"github.com/meridiancache/httpcache/metrics"
)

const (
	resultHit     = "hit"
	resultMiss    = "miss"
	resultSuccess = "success"
	resultError   = "error"
)

// Store wraps an httpcache.BytesStore, recording a metrics.Collector
// observation for every Get/Put/Remove.
type Store struct {
	backend   httpcache.BytesStore
	collector metrics.Collector
	backendName string
}

// New wraps backend, tagging every metric with backendName (e.g. "redis",
// "leveldb"). A nil collector falls back to metrics.DefaultCollector, which
// is a no-op.
func New(backend httpcache.BytesStore, backendName string, collector metrics.Collector) *Store {
	if collector == nil {
		collector = metrics.DefaultCollector
	}
	return &Store{backend: backend, backendName: backendName, collector: collector}
}

// NewEntryStore wraps backend with metrics and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(backend httpcache.BytesStore, backendName string, collector metrics.Collector) httpcache.EntryStore {
	return httpcache.EntryStoreFromBytes(New(backend, backendName, collector))
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, ok, err := s.backend.Get(ctx, key)
	duration := time.Since(start)

	result := resultMiss
	switch {
	case err != nil:
		result = resultError
	case ok:
		result = resultHit
	}
	s.collector.RecordCacheOperation("get", s.backendName, result, duration)

	return value, ok, err
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	err := s.backend.Put(ctx, key, data)
	duration := time.Since(start)

	result := resultSuccess
	if err != nil {
		result = resultError
	}
	s.collector.RecordCacheOperation("put", s.backendName, result, duration)

	return err
}

func (s *Store) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := s.backend.Remove(ctx, key)
	duration := time.Since(start)

	result := resultSuccess
	if err != nil {
		result = resultError
	}
	s.collector.RecordCacheOperation("remove", s.backendName, result, duration)

	return err
}
