package instrumentedstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/meridiancache/httpcache/store/storetest"
)

type recordingCollector struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingCollector) RecordCacheOperation(operation, backend, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, operation+":"+backend+":"+result)
}
func (r *recordingCollector) RecordCacheSize(string, int64)                       {}
func (r *recordingCollector) RecordCacheEntries(string, int64)                    {}
func (r *recordingCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (r *recordingCollector) RecordHTTPResponseSize(string, int64)                 {}
func (r *recordingCollector) RecordStaleResponse(string)                          {}

func TestStore(t *testing.T) {
	collector := &recordingCollector{}
	store := New(storetest.NewMemoryBytesStore(), "memory", collector)
	storetest.BytesStore(t, store)
}

func TestRecordsHitsAndMisses(t *testing.T) {
	collector := &recordingCollector{}
	store := New(storetest.NewMemoryBytesStore(), "memory", collector)
	ctx := context.Background()

	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("get: %v", err)
	}

	want := []string{"get:memory:miss", "put:memory:success", "get:memory:hit"}
	collector.mu.Lock()
	defer collector.mu.Unlock()
	if len(collector.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", collector.calls, want)
	}
	for i, w := range want {
		if collector.calls[i] != w {
			t.Fatalf("calls[%d] = %q, want %q", i, collector.calls[i], w)
		}
	}
}
