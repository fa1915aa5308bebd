package diskvstore

import (
	"testing"

	"github.com/meridiancache/httpcache/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.BytesStore(t, New(t.TempDir()))
}

func TestEntryStore(t *testing.T) {
	storetest.EntryStore(t, NewEntryStore(t.TempDir()))
}
