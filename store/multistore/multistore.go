// Package multistore provides a multi-tiered httpcache.BytesStore that
// cascades through several backends with automatic fallback and promotion,
// so hot data migrates toward the fastest tier while persistence lives in
// the slower ones.
package multistore

import (
	"context"
	"fmt"

	"github.com/meridiancache/httpcache"
)

// Store implements a multi-tiered caching strategy where tiers are ordered
// from fastest/smallest (first) to slowest/largest (last). Reads search each
// tier in order and promote a hit to every faster tier. Writes go to all
// tiers.
//
// Typical tiering:
//   - Tier 1: in-memory (store/freecachestore, fast, volatile)
//   - Tier 2: Redis (medium speed, shared, persistent)
//   - Tier 3: PostgreSQL or blob storage (slow, durable)
type Store struct {
	tiers []httpcache.BytesStore
}

// New builds a Store from tiers, ordered fastest to slowest. At least one
// tier is required.
func New(tiers ...httpcache.BytesStore) (*Store, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("multistore: at least one tier is required")
	}
	for _, tier := range tiers {
		if tier == nil {
			return nil, fmt.Errorf("multistore: tier cannot be nil")
		}
	}
	return &Store{tiers: tiers}, nil
}

// NewEntryStore builds a tiered Store from tiers and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(tiers ...httpcache.BytesStore) (httpcache.EntryStore, error) {
	s, err := New(tiers...)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range s.tiers {
		value, ok, err := tier.Get(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("multistore: tier %d get %q: %w", i, key, err)
		}
		if ok {
			s.promoteToFasterTiers(ctx, key, value, i)
			return value, true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	for i, tier := range s.tiers {
		if err := tier.Put(ctx, key, value); err != nil {
			return fmt.Errorf("multistore: tier %d put %q: %w", i, key, err)
		}
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	for i, tier := range s.tiers {
		if err := tier.Remove(ctx, key); err != nil {
			return fmt.Errorf("multistore: tier %d remove %q: %w", i, key, err)
		}
	}
	return nil
}

// promoteToFasterTiers writes value to every tier faster than foundAtTier.
// Promotion is best-effort: a faster tier being briefly unavailable should
// not fail a read that already succeeded against a slower tier.
func (s *Store) promoteToFasterTiers(ctx context.Context, key string, value []byte, foundAtTier int) {
	for i := 0; i < foundAtTier; i++ {
		if err := s.tiers[i].Put(ctx, key, value); err != nil {
			httpcache.GetLogger().Warn("multistore: promotion failed", "tier", i, "key", key, "error", err)
		}
	}
}
