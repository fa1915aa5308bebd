// Package blobstore provides an httpcache.BytesStore implementation using
// the Go Cloud Development Kit (gocloud.dev/blob), giving cloud-agnostic
// cache storage across S3, GCS, Azure Blob, and local filesystem backends.
//
// Example usage with S3:
//
//	import (
//	    _ "gocloud.dev/blob/s3blob"
//	    "github.com/meridiancache/httpcache/store/blobstore"
//	)
//
//	store, err := blobstore.New(ctx, blobstore.Config{
//	    BucketURL: "s3://my-bucket?region=us-west-2",
//	    KeyPrefix: "httpcache/",
//	})
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/meridiancache/httpcache"
)

// Config holds the configuration for a blob-backed Store.
type Config struct {
	// BucketURL is the Go Cloud blob URL (e.g. "s3://bucket?region=us-west-2").
	BucketURL string
	// KeyPrefix is prepended to all cache keys. Defaults to "cache/".
	KeyPrefix string
	// Timeout bounds a blob operation when ctx carries no deadline.
	// Defaults to 30s.
	Timeout time.Duration
	// Bucket is an optional pre-opened bucket; if set, BucketURL is ignored.
	Bucket *blob.Bucket
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "cache/",
		Timeout:   30 * time.Second,
	}
}

// Store is an httpcache.BytesStore backed by a Go Cloud blob bucket.
type Store struct {
	bucket     *blob.Bucket
	keyPrefix  string
	timeout    time.Duration
	ownsBucket bool
}

// New opens the bucket named by cfg.BucketURL (or uses cfg.Bucket directly)
// and returns a ready Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.BucketURL == "" && cfg.Bucket == nil {
		return nil, fmt.Errorf("blobstore: either BucketURL or Bucket must be provided")
	}
	defaults := DefaultConfig()
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	if cfg.Bucket != nil {
		return &Store{bucket: cfg.Bucket, keyPrefix: cfg.KeyPrefix, timeout: cfg.Timeout}, nil
	}

	bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open bucket: %w", err)
	}
	return &Store{bucket: bucket, keyPrefix: cfg.KeyPrefix, timeout: cfg.Timeout, ownsBucket: true}, nil
}

// NewWithBucket wraps an already-opened bucket whose lifecycle the caller
// manages; Close becomes a no-op.
func NewWithBucket(bucket *blob.Bucket, keyPrefix string, timeout time.Duration) *Store {
	defaults := DefaultConfig()
	if keyPrefix == "" {
		keyPrefix = defaults.KeyPrefix
	}
	if timeout == 0 {
		timeout = defaults.Timeout
	}
	return &Store{bucket: bucket, keyPrefix: keyPrefix, timeout: timeout}
}

// NewEntryStore opens a bucket per cfg and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(ctx context.Context, cfg Config) (httpcache.EntryStore, error) {
	s, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

// blobKey hashes the cache key to a fixed-width, filesystem/URL-safe blob
// name, avoiding issues with special characters across cloud providers.
func (s *Store) blobKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return s.keyPrefix + hex.EncodeToString(hash[:])
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	reader, err := s.bucket.NewReader(ctx, s.blobKey(key), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("blobstore: get %q: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, fmt.Errorf("blobstore: read %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	writer, err := s.bucket.NewWriter(ctx, s.blobKey(key), nil)
	if err != nil {
		return fmt.Errorf("blobstore: put %q: new writer: %w", key, err)
	}
	_, writeErr := writer.Write(data)
	closeErr := writer.Close()
	if writeErr != nil {
		return fmt.Errorf("blobstore: put %q: write: %w", key, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("blobstore: put %q: close: %w", key, closeErr)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.bucket.Delete(ctx, s.blobKey(key)); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("blobstore: remove %q: %w", key, err)
	}
	return nil
}

// Close closes the bucket, if this Store opened it.
func (s *Store) Close() error {
	if s.ownsBucket {
		if err := s.bucket.Close(); err != nil {
			return fmt.Errorf("blobstore: close bucket: %w", err)
		}
	}
	return nil
}
