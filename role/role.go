// Package role derives the viewer's effective capabilities from the
// session and developer mode states. It holds no state of its own.
package role

import (
	"sync"

	"github.com/pitabwire/strata/devmode"
	"github.com/pitabwire/strata/session"
)

// Role is the effective viewer classification.
type Role string

const (
	RoleVisitor   Role = "visitor"
	RoleResident  Role = "resident"
	RoleDeveloper Role = "developer"
)

// Resolver computes roles from the two upstream states. Developer
// elevation takes precedence over residency.
type Resolver struct {
	dev  *devmode.Manager
	sess *session.Manager

	mu     sync.Mutex
	subs   map[int]func(Role)
	nextID int
	last   Role

	unsubs []func()
}

// NewResolver wires the resolver to both upstreams so subscribers hear
// about every effective role change.
func NewResolver(dev *devmode.Manager, sess *session.Manager) *Resolver {
	r := &Resolver{
		dev:  dev,
		sess: sess,
		subs: make(map[int]func(Role)),
	}
	r.last = r.Current()

	r.unsubs = append(r.unsubs,
		dev.Subscribe(func(bool) { r.recompute() }),
		sess.Subscribe(func(session.Snapshot) { r.recompute() }),
	)
	return r
}

// Current resolves the effective role right now.
func (r *Resolver) Current() Role {
	if r.dev.IsDeveloper() {
		return RoleDeveloper
	}
	if r.sess.HasUser() {
		return RoleResident
	}
	return RoleVisitor
}

// IsPrivilegedViewer reports whether the viewer may see resident-only
// or editing surfaces.
func (r *Resolver) IsPrivilegedViewer() bool {
	return r.Current() != RoleVisitor
}

// CanEditContent reports whether the viewer may change portal content.
func (r *Resolver) CanEditContent() bool {
	return r.Current() == RoleDeveloper
}

// Subscribe registers a watcher invoked whenever the effective role
// changes. The returned function removes the watcher.
func (r *Resolver) Subscribe(fn func(Role)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Close detaches the resolver from its upstreams.
func (r *Resolver) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

func (r *Resolver) recompute() {
	current := r.Current()

	r.mu.Lock()
	if current == r.last {
		r.mu.Unlock()
		return
	}
	r.last = current
	watchers := make([]func(Role), 0, len(r.subs))
	for _, fn := range r.subs {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(current)
	}
}
