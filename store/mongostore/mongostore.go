// Package mongostore provides a MongoDB-backed httpcache.BytesStore built on
// go.mongodb.org/mongo-driver.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridiancache/httpcache"
)

// Config holds the configuration for a MongoDB-backed Store.
type Config struct {
	// URI is the MongoDB connection URI (e.g. "mongodb://localhost:27017").
	// Required when using New.
	URI string
	// Database is the name of the database to use for caching. Required.
	Database string
	// Collection is the name of the collection to use. Defaults to "httpcache".
	Collection string
	// KeyPrefix is prepended to every cache key. Defaults to "cache:".
	KeyPrefix string
	// Timeout bounds each database operation. Defaults to 5s.
	Timeout time.Duration
	// TTL, if set, creates a TTL index on createdAt so entries expire
	// server-side without an explicit Remove.
	TTL time.Duration
	// ClientOptions are additional options passed to mongo.Connect.
	ClientOptions *options.ClientOptions
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Collection: "httpcache",
		KeyPrefix:  "cache:",
		Timeout:    5 * time.Second,
	}
}

type document struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Store is an httpcache.BytesStore backed by a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	keyPrefix  string
	timeout    time.Duration
	ownsClient bool
}

// New connects to MongoDB per cfg and returns a ready Store. The returned
// Store owns the client and closes it on Close.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongostore: URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongostore: Database is required")
	}
	defaults := DefaultConfig()
	if cfg.Collection == "" {
		cfg.Collection = defaults.Collection
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ClientOptions != nil {
		clientOpts = cfg.ClientOptions.ApplyURI(cfg.URI)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			httpcache.GetLogger().Warn("mongostore: disconnect after failed ping", "error", derr)
		}
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		keyPrefix:  cfg.KeyPrefix,
		timeout:    cfg.Timeout,
		ownsClient: true,
	}

	if cfg.TTL > 0 {
		if err := s.createTTLIndex(ctx, cfg.TTL); err != nil {
			if derr := client.Disconnect(ctx); derr != nil {
				httpcache.GetLogger().Warn("mongostore: disconnect after TTL index error", "error", derr)
			}
			return nil, fmt.Errorf("mongostore: create TTL index: %w", err)
		}
	}

	return s, nil
}

// NewWithClient wraps an already-connected client whose lifecycle the caller
// manages; Close becomes a no-op.
func NewWithClient(client *mongo.Client, database, collection string, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("mongostore: client is required")
	}
	if database == "" {
		return nil, fmt.Errorf("mongostore: database is required")
	}
	defaults := DefaultConfig()
	if collection == "" {
		collection = defaults.Collection
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	return &Store{
		collection: client.Database(database).Collection(collection),
		keyPrefix:  cfg.KeyPrefix,
		timeout:    cfg.Timeout,
	}, nil
}

// NewEntryStore connects to MongoDB per cfg and adapts it as an
// httpcache.EntryStore.
func NewEntryStore(ctx context.Context, cfg Config) (httpcache.EntryStore, error) {
	s, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return httpcache.EntryStoreFromBytes(s), nil
}

func (s *Store) key(key string) string {
	return s.keyPrefix + key
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": s.key(key)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongostore: get %q: %w", key, err)
	}
	return doc.Data, true, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := document{Key: s.key(key), Data: data, CreatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return fmt.Errorf("mongostore: put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": s.key(key)}); err != nil {
		return fmt.Errorf("mongostore: remove %q: %w", key, err)
	}
	return nil
}

func (s *Store) createTTLIndex(ctx context.Context, ttl time.Duration) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().
			SetExpireAfterSeconds(int32(ttl.Seconds())).
			SetName("httpcache_ttl"),
	}
	indexCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.collection.Indexes().CreateOne(indexCtx, indexModel)
	return err
}

// Close disconnects the underlying client, if this Store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil || !s.ownsClient {
		return nil
	}
	return s.client.Disconnect(ctx)
}
