// Package securestore wraps a httpcache.BytesStore with SHA-256 key hashing
// and AES-256-GCM encryption, both always applied (New rejects an empty
// passphrase), so entries held by an untrusted or shared backend (a Redis
// instance, a disk cache) are unreadable without the passphrase, and cache
// keys never appear in the backend's own key space in plaintext.
package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/meridiancache/httpcache"
)

const (
	scryptN   = 32768
	scryptR   = 8
	scryptP   = 1
	keyLength = 32
	nonceSize = 12
)

// Store wraps an underlying httpcache.BytesStore, encrypting every value
// before it reaches the backend and decrypting it on the way back out.
type Store struct {
	backend httpcache.BytesStore
	gcm     cipher.AEAD
}

// New derives an AES-256 key from passphrase via scrypt and wraps backend
// with it. salt should be unique per deployment; a fixed salt is used when
// empty, which is sufficient for a single-tenant cache but not recommended
// for multi-tenant key separation.
func New(backend httpcache.BytesStore, passphrase string, salt []byte) (*Store, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("securestore: passphrase cannot be empty")
	}
	if len(salt) == 0 {
		fixed := sha256.Sum256([]byte("httpcache-securestore-salt-v1"))
		salt = fixed[:]
	}

	key, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("securestore: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("securestore: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("securestore: new GCM: %w", err)
	}

	return &Store{backend: backend, gcm: gcm}, nil
}

// NewEntryStore wraps backend with encryption and adapts it straight into
// an httpcache.EntryStore via httpcache.EntryStoreFromBytes.
func NewEntryStore(backend httpcache.BytesStore, passphrase string, salt []byte) (httpcache.EntryStore, error) {
	s, err := New(backend, passphrase, salt)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

// hashKey replaces the cache key with its SHA-256 hex digest before it
// reaches the backend, so the backend's own key space never reveals the
// cached URLs.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ciphertext, ok, err := s.backend.Get(ctx, hashKey(key))
	if err != nil || !ok {
		return nil, ok, err
	}
	plaintext, err := s.decrypt(ciphertext)
	if err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	ciphertext, err := s.encrypt(data)
	if err != nil {
		return err
	}
	return s.backend.Put(ctx, hashKey(key), ciphertext)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.backend.Remove(ctx, hashKey(key))
}

func (s *Store) encrypt(data []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("securestore: generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, data, nil), nil
}

func (s *Store) decrypt(data []byte) ([]byte, error) {
	if len(data) < nonceSize {
		return nil, fmt.Errorf("securestore: ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("securestore: decrypt: %w", err)
	}
	return plaintext, nil
}
