//go:build integration

package memcachestore

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	testcontainersMemcache "github.com/testcontainers/testcontainers-go/modules/memcached"

	"github.com/meridiancache/httpcache/store/storetest"
)

const memcachedImage = "memcached:1.6-alpine"

var sharedMemcachedEndpoint string

func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	container, err := testcontainersMemcache.Run(ctx, memcachedImage)
	if err != nil {
		panic("failed to start Memcached container: " + err.Error())
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		panic("failed to get Memcached endpoint: " + err.Error())
	}
	sharedMemcachedEndpoint = endpoint

	code := m.Run()

	if err := testcontainers.TerminateContainer(container); err != nil {
		panic("failed to terminate Memcached container: " + err.Error())
	}
	os.Exit(code)
}

func TestStoreIntegration(t *testing.T) {
	storetest.BytesStore(t, New(sharedMemcachedEndpoint))
}

func TestEntryStoreIntegration(t *testing.T) {
	storetest.EntryStore(t, NewEntryStore(sharedMemcachedEndpoint))
}
