// Package session owns the authenticated-user state of the portal. All
// mutations flow through a single reducer goroutine, so observers can
// never see interleaved or out of order transitions. Remote call
// completions carry the generation observed when the call started and
// are discarded when the state has moved on, which keeps a slow sign in
// from resurrecting a session the user already signed out of.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/identity"
	"github.com/pitabwire/strata/workerpool"
)

// Status is the authentication state of the portal session.
type Status string

const (
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

const remoteSignOutTimeout = 10 * time.Second

var (
	// ErrClosed is returned once the manager has been shut down.
	ErrClosed = errors.New("session manager is closed")

	// ErrSuperseded means a remote call completed after the session
	// state had already moved on, so its result was discarded.
	ErrSuperseded = errors.New("result discarded, session state changed while the call was in flight")
)

// Snapshot is an immutable view of the session state. Generation
// increases by one for every applied mutation.
type Snapshot struct {
	Status      Status
	Identity    *identity.UserIdentity
	Profile     *identity.Profile
	AccessToken string
	Generation  uint64
}

// EventKind labels an out of band session notification.
type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventProfileChanged EventKind = "profile_changed"
)

// Notification is a session change reported from outside the manager,
// typically relayed from another portal instance.
type Notification struct {
	Kind    EventKind         `json:"kind"`
	Session *identity.Session `json:"session,omitempty"`
	Profile *identity.Profile `json:"profile,omitempty"`
}

type eventKind int

const (
	evApplySession eventKind = iota
	evClear
	evApplyProfile
	evNotification
)

type event struct {
	kind eventKind

	// conditional events only apply when fromGen still matches the
	// current generation.
	conditional bool
	fromGen     uint64

	session      *identity.Session
	profile      *identity.Profile
	notification *Notification

	reply chan error
}

// Manager is the session state machine.
type Manager struct {
	svc  identity.Service
	pool workerpool.Pool
	log  *util.LogEntry

	events  chan event
	current atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	done      chan struct{}
	closeOnce sync.Once
}

// New starts the reducer goroutine. The manager begins anonymous.
func New(ctx context.Context, svc identity.Service, pool workerpool.Pool) *Manager {
	m := &Manager{
		svc:    svc,
		pool:   pool,
		log:    util.Log(ctx),
		events: make(chan event),
		subs:   make(map[int]func(Snapshot)),
		done:   make(chan struct{}),
	}
	m.current.Store(&Snapshot{Status: StatusAnonymous})

	go m.run()
	return m
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	return *m.current.Load()
}

// HasUser reports whether a user is signed in right now.
func (m *Manager) HasUser() bool {
	return m.current.Load().Status == StatusAuthenticated
}

// Subscribe registers a watcher invoked after every applied mutation,
// from the reducer goroutine. The returned function removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// SignIn authenticates against the identity service. A completion that
// arrives after the session moved on is discarded and reported as
// ErrSuperseded.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	fromGen := m.Snapshot().Generation

	sess, err := m.svc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	return m.apply(ctx, event{
		kind:        evApplySession,
		conditional: true,
		fromGen:     fromGen,
		session:     sess,
	})
}

// SignUp registers a new account and, on success, signs it in under the
// same stale-completion rules as SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password, fullName string) error {
	fromGen := m.Snapshot().Generation

	sess, err := m.svc.SignUp(ctx, email, password, fullName)
	if err != nil {
		return err
	}

	return m.apply(ctx, event{
		kind:        evApplySession,
		conditional: true,
		fromGen:     fromGen,
		session:     sess,
	})
}

// SignOut clears the local session immediately. Remote invalidation is
// best effort and never blocks the transition to anonymous.
func (m *Manager) SignOut(ctx context.Context) error {
	snap := m.Snapshot()
	if snap.Status != StatusAuthenticated {
		return nil
	}

	if err := m.apply(ctx, event{kind: evClear}); err != nil {
		return err
	}

	token := snap.AccessToken
	revoke := func() {
		rctx, cancel := context.WithTimeout(context.Background(), remoteSignOutTimeout)
		defer cancel()
		if err := m.svc.SignOut(rctx, token); err != nil {
			m.log.WithError(err).Debug("remote sign out failed")
		}
	}

	if m.pool == nil || m.pool.Submit(ctx, revoke) != nil {
		go revoke()
	}
	return nil
}

// UpdateProfile pushes a partial profile change for the signed in user
// and applies the merged result, unless the session moved on meanwhile.
// An empty update is a no-op returning the current profile.
func (m *Manager) UpdateProfile(
	ctx context.Context,
	update identity.ProfileUpdate,
) (*identity.Profile, error) {
	snap := m.Snapshot()
	if snap.Status != StatusAuthenticated {
		return nil, identity.ErrSessionExpired
	}

	if update.IsEmpty() {
		profile := *snap.Profile
		return &profile, nil
	}

	profile, err := m.svc.UpdateProfile(ctx, snap.AccessToken, update)
	if err != nil {
		return nil, err
	}

	err = m.apply(ctx, event{
		kind:        evApplyProfile,
		conditional: true,
		fromGen:     snap.Generation,
		profile:     profile,
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// RequestPasswordReset delegates to the identity service. It never
// touches session state.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	return m.svc.RequestPasswordReset(ctx, email)
}

// Notify applies an externally observed session change. Notifications
// are authoritative and always advance the generation.
func (m *Manager) Notify(ctx context.Context, n Notification) error {
	return m.apply(ctx, event{kind: evNotification, notification: &n})
}

// Close stops the reducer. In-flight apply calls return ErrClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Manager) apply(ctx context.Context, ev event) error {
	ev.reply = make(chan error, 1)

	select {
	case m.events <- ev:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.reply:
		return err
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run() {
	for {
		select {
		case <-m.done:
			return
		case ev := <-m.events:
			m.reduce(ev)
		}
	}
}

func (m *Manager) reduce(ev event) {
	state := *m.current.Load()

	if ev.conditional && ev.fromGen != state.Generation {
		m.log.WithField("from_generation", ev.fromGen).
			WithField("current_generation", state.Generation).
			Debug("discarding stale completion")
		ev.reply <- ErrSuperseded
		return
	}

	switch ev.kind {
	case evApplySession:
		applySession(&state, ev.session)
	case evClear:
		clearSession(&state)
	case evApplyProfile:
		profile := *ev.profile
		state.Profile = &profile
	case evNotification:
		m.reduceNotification(&state, ev.notification)
	}

	state.Generation++
	m.current.Store(&state)
	m.fanOut(state)

	ev.reply <- nil
}

func (m *Manager) reduceNotification(state *Snapshot, n *Notification) {
	switch n.Kind {
	case EventSignedIn, EventTokenRefreshed:
		if n.Session != nil {
			applySession(state, n.Session)
		}
	case EventSignedOut:
		clearSession(state)
	case EventProfileChanged:
		if n.Profile != nil && state.Status == StatusAuthenticated {
			profile := *n.Profile
			state.Profile = &profile
		}
	default:
		m.log.WithField("kind", string(n.Kind)).Debug("ignoring unknown session notification")
	}
}

func applySession(state *Snapshot, sess *identity.Session) {
	id := sess.Identity
	profile := sess.Profile

	state.Status = StatusAuthenticated
	state.Identity = &id
	state.Profile = &profile
	state.AccessToken = sess.AccessToken
}

func clearSession(state *Snapshot) {
	state.Status = StatusAnonymous
	state.Identity = nil
	state.Profile = nil
	state.AccessToken = ""
}

func (m *Manager) fanOut(snap Snapshot) {
	m.subMu.Lock()
	watchers := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		watchers = append(watchers, fn)
	}
	m.subMu.Unlock()

	for _, fn := range watchers {
		fn(snap)
	}
}
