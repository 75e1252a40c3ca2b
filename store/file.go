package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/pitabwire/util"
)

const fileStoreMode = 0o600

// FileStore persists entries as a single JSON document on disk. It is the
// durable equivalent of browser local storage: values survive a restart,
// while a missing or corrupt file simply yields an empty store.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	items map[string]string
}

// NewFileStore opens or creates the store file at the supplied path.
func NewFileStore(ctx context.Context, path string) (RawStore, error) {
	if path == "" {
		return nil, errors.New("file store requires a path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	s := &FileStore{
		path:  path,
		items: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run, nothing persisted yet.
	case err != nil:
		return nil, err
	default:
		if err = json.Unmarshal(raw, &s.items); err != nil {
			util.Log(ctx).WithError(err).WithField("path", path).
				Warn("preference file is corrupt, starting from defaults")
			s.items = make(map[string]string)
		}
	}

	return s, nil
}

// Get retrieves an item from the store.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	encoded, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// A hand-edited or damaged value behaves like an absent one.
		return nil, false, nil
	}

	return data, true, nil
}

// Set stores an item and synchronously rewrites the backing file.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = base64.StdEncoding.EncodeToString(value)
	return s.persistLocked()
}

// Delete removes an item from the store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return s.persistLocked()
}

// Exists checks if a key exists in the store.
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[key]
	return ok, nil
}

// Flush clears all items from the store.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]string)
	return s.persistLocked()
}

// Close releases resources held by the store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) persistLocked() error {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, raw, fileStoreMode); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
