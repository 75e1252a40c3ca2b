package store

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe in-memory store implementation. It backs
// tests and ephemeral sessions where nothing should outlive the process.
type InMemoryStore struct {
	items sync.Map // map[string][]byte
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() RawStore {
	return &InMemoryStore{}
}

// Get retrieves an item from the store.
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.items.Load(key)
	if !ok {
		return nil, false, nil
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}

	return data, true, nil
}

// Set stores an item.
func (s *InMemoryStore) Set(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	s.items.Store(key, buf)
	return nil
}

// Delete removes an item from the store.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.items.Delete(key)
	return nil
}

// Exists checks if a key exists in the store.
func (s *InMemoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.items.Load(key)
	return ok, nil
}

// Flush clears all items from the store.
func (s *InMemoryStore) Flush(_ context.Context) error {
	s.items.Clear()
	return nil
}

// Close releases resources, a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
