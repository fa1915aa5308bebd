package leveldbstore

import (
	"testing"

	"github.com/meridiancache/httpcache/store/storetest"
)

func TestStore(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	storetest.BytesStore(t, store)
}

func TestEntryStore(t *testing.T) {
	store, err := NewEntryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewEntryStore: %v", err)
	}

	storetest.EntryStore(t, store)
}
