//go:build integration

package redisstore

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/meridiancache/httpcache/store/storetest"
)

const redisImage = "redis:7-alpine"

var sharedRedisEndpoint string

func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	container, err := rediscontainer.Run(ctx, redisImage)
	if err != nil {
		panic("failed to start Redis container: " + err.Error())
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		panic("failed to get Redis endpoint: " + err.Error())
	}
	sharedRedisEndpoint = endpoint

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		panic("failed to terminate Redis container: " + err.Error())
	}
	os.Exit(code)
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{Addr: sharedRedisEndpoint})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreIntegration(t *testing.T) {
	storetest.BytesStore(t, newStore(t))
}

func TestEntryStoreIntegration(t *testing.T) {
	entryStore, err := NewEntryStore(Config{Addr: sharedRedisEndpoint})
	if err != nil {
		t.Fatalf("NewEntryStore: %v", err)
	}
	storetest.EntryStore(t, entryStore)
}

func TestEmptyAddrRejected(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error with empty Addr")
	}
}
