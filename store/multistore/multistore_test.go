package multistore

import (
	"context"
	"testing"

	"github.com/meridiancache/httpcache/store/storetest"
)

func TestStore(t *testing.T) {
	store, err := New(storetest.NewMemoryBytesStore(), storetest.NewMemoryBytesStore())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	storetest.BytesStore(t, store)
}

func TestPromotionToFasterTier(t *testing.T) {
	fast := storetest.NewMemoryBytesStore()
	slow := storetest.NewMemoryBytesStore()
	store, err := New(fast, slow)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	if err := slow.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("seed slow tier: %v", err)
	}

	if _, ok, _ := fast.Get(ctx, "k"); ok {
		t.Fatal("fast tier should not have the value before a read promotes it")
	}

	if _, ok, err := store.Get(ctx, "k"); err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}

	if _, ok, _ := fast.Get(ctx, "k"); !ok {
		t.Fatal("value was not promoted to the faster tier")
	}
}

func TestNoTiersRejected(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error for zero tiers")
	}
}
