package identity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"
)

const inMemorySessionTTL = time.Hour

type inMemoryAccount struct {
	password  string
	confirmed bool
	identity  UserIdentity
	profile   Profile
}

// InMemoryService is a self-contained identity service used by tests
// and local development. Accounts created through SignUp are confirmed
// immediately.
type InMemoryService struct {
	mu       sync.Mutex
	accounts map[string]*inMemoryAccount
	sessions map[string]string
}

var _ Service = (*InMemoryService)(nil)

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		accounts: make(map[string]*inMemoryAccount),
		sessions: make(map[string]string),
	}
}

// Seed installs an account directly, bypassing the sign up flow.
func (s *InMemoryService) Seed(email, password string, profile Profile, confirmed bool) UserIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := UserIdentity{ID: xid.New().String(), Email: email}
	s.accounts[email] = &inMemoryAccount{
		password:  password,
		confirmed: confirmed,
		identity:  id,
		profile:   profile,
	}
	return id
}

func (s *InMemoryService) SignIn(_ context.Context, email, password string) (*Session, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[email]
	if !ok || account.password != password {
		return nil, ErrInvalidCredentials
	}
	if !account.confirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.openSession(account), nil
}

func (s *InMemoryService) SignUp(_ context.Context, email, password, fullName string) (*Session, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[email]; ok {
		return nil, ErrEmailTaken
	}

	account := &inMemoryAccount{
		password:  password,
		confirmed: true,
		identity:  UserIdentity{ID: xid.New().String(), Email: email},
		profile:   Profile{FullName: fullName},
	}
	s.accounts[email] = account

	return s.openSession(account), nil
}

func (s *InMemoryService) SignOut(_ context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, accessToken)
	return nil
}

func (s *InMemoryService) UpdateProfile(
	_ context.Context,
	accessToken string,
	update ProfileUpdate,
) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.sessions[accessToken]
	if !ok {
		return nil, ErrSessionExpired
	}

	account := s.accounts[email]
	account.profile = update.Apply(account.profile)

	profile := account.profile
	return &profile, nil
}

func (s *InMemoryService) RequestPasswordReset(_ context.Context, email string) error {
	// Mirrors the hosted behaviour of never disclosing whether the
	// address is known.
	return ValidateEmail(email)
}

// openSession assumes the lock is held.
func (s *InMemoryService) openSession(account *inMemoryAccount) *Session {
	token := xid.New().String()
	s.sessions[token] = account.identity.Email

	return &Session{
		Identity:     account.identity,
		Profile:      account.profile,
		AccessToken:  token,
		RefreshToken: xid.New().String(),
		ExpiresAt:    time.Now().Add(inMemorySessionTTL),
	}
}
