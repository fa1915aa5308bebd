package blobstore

import (
	"context"
	"testing"

	"gocloud.dev/blob/memblob"

	"github.com/meridiancache/httpcache/store/storetest"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	store, err := New(ctx, Config{Bucket: bucket})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	storetest.BytesStore(t, store)
}

func TestEntryStore(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	entryStore, err := NewEntryStore(ctx, Config{Bucket: bucket})
	if err != nil {
		t.Fatalf("NewEntryStore: %v", err)
	}
	storetest.EntryStore(t, entryStore)
}

func TestMissingBucketAndURLRejected(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{}); err == nil {
		t.Fatal("expected error for missing Bucket and BucketURL")
	}
}
