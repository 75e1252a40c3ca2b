// Package store provides the durable key value capability backing portal
// preferences. Backends model browser local storage: small, always
// available, and safe to lose.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// RawStore is the low-level storage interface that works with bytes.
type RawStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Flush(ctx context.Context) error
	Close() error
}

// Store is a generic store interface with automatic serialization.
type Store[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, value V) error
	Delete(ctx context.Context, key K) error
	Exists(ctx context.Context, key K) (bool, error)
	Flush(ctx context.Context) error
	Close() error
}

// GenericStore wraps a RawStore and provides automatic serialization.
type GenericStore[K comparable, V any] struct {
	raw     RawStore
	keyFunc func(K) string
}

// NewGenericStore creates a new generic store with automatic serialization.
func NewGenericStore[K comparable, V any](raw RawStore, keyFunc func(K) string) Store[K, V] {
	if keyFunc == nil {
		keyFunc = func(k K) string {
			return fmt.Sprintf("%v", k)
		}
	}
	return &GenericStore[K, V]{
		raw:     raw,
		keyFunc: keyFunc,
	}
}

func (g *GenericStore[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	data, found, err := g.raw.Get(ctx, g.keyFunc(key))
	if err != nil || !found {
		return zero, found, err
	}

	var value V
	if unmarshalErr := json.Unmarshal(data, &value); unmarshalErr != nil {
		return zero, false, unmarshalErr
	}
	return value, true, nil
}

func (g *GenericStore[K, V]) Set(ctx context.Context, key K, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return g.raw.Set(ctx, g.keyFunc(key), data)
}

func (g *GenericStore[K, V]) Delete(ctx context.Context, key K) error {
	return g.raw.Delete(ctx, g.keyFunc(key))
}

func (g *GenericStore[K, V]) Exists(ctx context.Context, key K) (bool, error) {
	return g.raw.Exists(ctx, g.keyFunc(key))
}

func (g *GenericStore[K, V]) Flush(ctx context.Context) error {
	return g.raw.Flush(ctx)
}

func (g *GenericStore[K, V]) Close() error {
	return g.raw.Close()
}
