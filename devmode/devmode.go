// Package devmode gates the portal's content editing affordances behind
// a configured credential pair. Elevation is held in memory only: a
// process restart always de-elevates.
package devmode

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/config"
)

// Manager holds the developer elevation flag.
type Manager struct {
	mu       sync.RWMutex
	elevated bool
	watchers map[int]func(bool)
	nextID   int

	username string
	password string
}

// New creates a manager with credentials sourced from configuration.
func New(cfg config.ConfigurationDeveloperAccess) *Manager {
	return &Manager{
		watchers: make(map[int]func(bool)),
		username: cfg.GetDeveloperUsername(),
		password: cfg.GetDeveloperPassword(),
	}
}

// Login elevates the session when both inputs match the configured
// credential pair exactly. Comparison is constant time; there is no
// lockout and nothing is persisted.
func (m *Manager) Login(ctx context.Context, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
	if !userOK || !passOK {
		util.Log(ctx).Debug("developer login rejected")
		return false
	}

	m.mu.Lock()
	changed := !m.elevated
	m.elevated = true
	m.mu.Unlock()

	if changed {
		util.Log(ctx).Info("developer mode enabled")
		m.notify(true)
	}
	return true
}

// Logout drops developer elevation.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	changed := m.elevated
	m.elevated = false
	m.mu.Unlock()

	if changed {
		util.Log(ctx).Info("developer mode disabled")
		m.notify(false)
	}
}

// IsDeveloper reports whether the session is currently elevated.
func (m *Manager) IsDeveloper() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.elevated
}

// Subscribe registers a watcher invoked on every elevation change. The
// returned function removes the watcher.
func (m *Manager) Subscribe(fn func(elevated bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify(elevated bool) {
	m.mu.RLock()
	watchers := make([]func(bool), 0, len(m.watchers))
	for _, fn := range m.watchers {
		watchers = append(watchers, fn)
	}
	m.mu.RUnlock()

	for _, fn := range watchers {
		fn(elevated)
	}
}
