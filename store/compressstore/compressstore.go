// Package compressstore wraps an httpcache.BytesStore with transparent
// compression, trading CPU for storage and network bandwidth. Gzip, Brotli,
// and Snappy are supported; the chosen algorithm is recorded per entry so a
// store can be read back correctly even after the configured algorithm
// changes.
package compressstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"

	"github.com/meridiancache/httpcache"
)

// Algorithm selects the compression scheme used for new writes. Existing
// entries are always decompressed with the algorithm recorded in their
// marker byte, regardless of the store's current Algorithm.
type Algorithm int

const (
	Gzip Algorithm = iota
	Brotli
	Snappy
)

func (a Algorithm) String() string {
	switch a {
	case Gzip:
		return "gzip"
	case Brotli:
		return "brotli"
	case Snappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// Stats holds cumulative compression statistics for a Store.
type Stats struct {
	CompressedBytes   int64
	UncompressedBytes int64
	CompressedCount   int64
	SkippedCount int64 // stored uncompressed because compression shrank nothing or failed
}

// Config configures a compressing Store.
type Config struct {
	// Backend is the underlying httpcache.BytesStore. Required.
	Backend httpcache.BytesStore
	// Algorithm selects the compression scheme for new writes.
	Algorithm Algorithm
	// GzipLevel is used when Algorithm is Gzip. Defaults to
	// gzip.DefaultCompression.
	GzipLevel int
	// BrotliLevel is used when Algorithm is Brotli, 0-11. Defaults to 6.
	BrotliLevel int
}

// Store is an httpcache.BytesStore that transparently compresses values
// before handing them to Backend, and decompresses them on the way out.
type Store struct {
	backend     httpcache.BytesStore
	algorithm   Algorithm
	gzipLevel   int
	brotliLevel int

	compressedBytes   atomic.Int64
	uncompressedBytes atomic.Int64
	compressedCount   atomic.Int64
	skippedCount      atomic.Int64
}

// New wraps cfg.Backend with compression per cfg.
func New(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("compressstore: Backend is required")
	}
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = gzip.DefaultCompression
	}
	if cfg.BrotliLevel == 0 {
		cfg.BrotliLevel = 6
	}
	if cfg.Algorithm == Brotli && (cfg.BrotliLevel < 0 || cfg.BrotliLevel > 11) {
		return nil, fmt.Errorf("compressstore: invalid brotli level %d", cfg.BrotliLevel)
	}
	return &Store{
		backend:     cfg.Backend,
		algorithm:   cfg.Algorithm,
		gzipLevel:   cfg.GzipLevel,
		brotliLevel: cfg.BrotliLevel,
	}, nil
}

// NewEntryStore wraps cfg.Backend with compression and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(cfg Config) (httpcache.EntryStore, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

// marker byte: 0 means stored uncompressed, otherwise Algorithm+1.
const uncompressedMarker = 0

func (s *Store) compress(data []byte) (Algorithm, []byte, error) {
	switch s.algorithm {
	case Gzip:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, s.gzipLevel)
		if err != nil {
			return 0, nil, fmt.Errorf("compressstore: gzip writer: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			w.Close()
			return 0, nil, fmt.Errorf("compressstore: gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return 0, nil, fmt.Errorf("compressstore: gzip close: %w", err)
		}
		return Gzip, buf.Bytes(), nil
	case Brotli:
		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, s.brotliLevel)
		if _, err := w.Write(data); err != nil {
			w.Close()
			return 0, nil, fmt.Errorf("compressstore: brotli write: %w", err)
		}
		if err := w.Close(); err != nil {
			return 0, nil, fmt.Errorf("compressstore: brotli close: %w", err)
		}
		return Brotli, buf.Bytes(), nil
	case Snappy:
		return Snappy, snappy.Encode(nil, data), nil
	default:
		return 0, nil, fmt.Errorf("compressstore: unsupported algorithm %v", s.algorithm)
	}
}

func decompress(algo Algorithm, data []byte) ([]byte, error) {
	switch algo {
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compressstore: gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case Brotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	case Snappy:
		return snappy.Decode(nil, data)
	default:
		return nil, fmt.Errorf("compressstore: unsupported algorithm %v", algo)
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := s.backend.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(raw) == 0 {
		return raw, true, nil
	}
	marker := raw[0]
	if marker == uncompressedMarker {
		return raw[1:], true, nil
	}
	data, err := decompress(Algorithm(marker-1), raw[1:])
	if err != nil {
		return nil, false, fmt.Errorf("compressstore: decompress %q: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	algo, compressed, err := s.compress(value)
	var out []byte
	if err != nil || len(compressed) >= len(value) {
		out = make([]byte, len(value)+1)
		out[0] = uncompressedMarker
		copy(out[1:], value)
		s.skippedCount.Add(1)
	} else {
		out = make([]byte, len(compressed)+1)
		out[0] = byte(algo) + 1
		copy(out[1:], compressed)
		s.compressedCount.Add(1)
		s.compressedBytes.Add(int64(len(compressed)))
	}
	s.uncompressedBytes.Add(int64(len(value)))
	return s.backend.Put(ctx, key, out)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.backend.Remove(ctx, key)
}

// Stats returns cumulative compression statistics.
func (s *Store) Stats() Stats {
	return Stats{
		CompressedBytes:   s.compressedBytes.Load(),
		UncompressedBytes: s.uncompressedBytes.Load(),
		CompressedCount:   s.compressedCount.Load(),
		SkippedCount:      s.skippedCount.Load(),
	}
}
