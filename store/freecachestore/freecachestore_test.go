package freecachestore

import (
	"testing"

	"github.com/meridiancache/httpcache/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.BytesStore(t, New(1024*1024))
}

func TestEntryStore(t *testing.T) {
	storetest.EntryStore(t, NewEntryStore(1024*1024))
}
