// Package redis provides a Redis backed preference store for deployments
// where portal state should follow the resident across devices.
package redis

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitabwire/strata/store"
)

// Options contains configuration for the Redis store.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis-backed store implementation.
type Store struct {
	client *redis.Client
	prefix string
}

const connectionTimeout = 5 * time.Second

// New creates a new Redis store.
func New(opts Options) (store.RawStore, error) {
	// Parse address to handle redis:// scheme
	addr := opts.Addr
	if parsedURL, err := url.Parse(opts.Addr); err == nil && parsedURL.Scheme == "redis" {
		addr = parsedURL.Host
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		prefix: opts.KeyPrefix,
	}, nil
}

func (rs *Store) key(key string) string {
	if rs.prefix == "" {
		return key
	}
	return rs.prefix + ":" + key
}

// Get retrieves an item from the store.
func (rs *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := rs.client.Get(ctx, rs.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// Set stores an item. Preferences never expire, only get overwritten.
func (rs *Store) Set(ctx context.Context, key string, value []byte) error {
	return rs.client.Set(ctx, rs.key(key), value, 0).Err()
}

// Delete removes an item from the store.
func (rs *Store) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, rs.key(key)).Err()
}

// Exists checks if a key exists in the store.
func (rs *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := rs.client.Exists(ctx, rs.key(key)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Flush clears all items from the store.
func (rs *Store) Flush(ctx context.Context) error {
	return rs.client.FlushDB(ctx).Err()
}

// Close closes the Redis connection.
func (rs *Store) Close() error {
	return rs.client.Close()
}
