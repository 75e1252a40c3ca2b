package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata/config"
	"github.com/pitabwire/strata/identity"
)

// A structurally valid, unsigned-verification sample token. Claims are
// only parsed, never trusted, when no JWK data is configured.
const sampleToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJzdWIiOiIxMjM0NTY3ODkwIiwiZW1haWwiOiJhbWluYWhAZXhhbXBsZS5jb20ifQ." +
	"SflKxwRJSMeKKF2QT4fwpMeJf36POk6yJV_adQssw5c"

type HTTPServiceTestSuite struct {
	suite.Suite
}

func TestHTTPServiceSuite(t *testing.T) {
	suite.Run(t, &HTTPServiceTestSuite{})
}

func (s *HTTPServiceTestSuite) newService(handler http.Handler) (*identity.HTTPService, *httptest.Server) {
	srv := httptest.NewServer(handler)
	s.T().Cleanup(srv.Close)

	cfg := &config.PortalConfig{
		IdentityServiceURI: srv.URL,
		IdentityServiceKey: "anon-key",
	}
	return identity.NewHTTPService(cfg, srv.Client()), srv
}

func (s *HTTPServiceTestSuite) TestSignIn() {
	var gotPath, gotAPIKey string
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")

		var body map[string]string
		require.NoError(s.T(), json.NewDecoder(r.Body).Decode(&body))
		require.Equal(s.T(), "aminah@example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  sampleToken,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user": map[string]any{
				"id":    "user-1",
				"email": "aminah@example.com",
				"user_metadata": map[string]any{
					"full_name":   "Aminah binti Yusof",
					"unit_number": "A-12-03",
				},
			},
		})
	}))

	sess, err := svc.SignIn(context.Background(), "aminah@example.com", "rumahku1")
	require.NoError(s.T(), err)
	require.Equal(s.T(), "/token?grant_type=password", gotPath)
	require.Equal(s.T(), "anon-key", gotAPIKey)
	require.Equal(s.T(), "user-1", sess.Identity.ID)
	require.Equal(s.T(), "Aminah binti Yusof", sess.Profile.FullName)
	require.Equal(s.T(), "A-12-03", sess.Profile.UnitNumber)
	require.Equal(s.T(), sampleToken, sess.AccessToken)
	require.False(s.T(), sess.ExpiresAt.IsZero())
}

func (s *HTTPServiceTestSuite) TestSignInClassifiesRejection() {
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error_description": "Invalid login credentials",
		})
	}))

	_, err := svc.SignIn(context.Background(), "aminah@example.com", "wrong")
	require.ErrorIs(s.T(), err, identity.ErrInvalidCredentials)
}

func (s *HTTPServiceTestSuite) TestSignInValidatesLocallyFirst() {
	called := false
	svc, _ := s.newService(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	_, err := svc.SignIn(context.Background(), "not-an-email", "rumahku1")
	require.ErrorIs(s.T(), err, identity.ErrInvalidEmail)
	require.False(s.T(), called, "a malformed address must never produce a remote call")
}

func (s *HTTPServiceTestSuite) TestSignUpWithoutSessionMeansUnconfirmed() {
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": "user-2", "email": "baru@example.com"},
		})
	}))

	_, err := svc.SignUp(context.Background(), "baru@example.com", "rumahku1", "Orang Baru")
	require.ErrorIs(s.T(), err, identity.ErrEmailNotConfirmed)
}

func (s *HTTPServiceTestSuite) TestSignUpEnforcesPasswordPolicy() {
	svc, _ := s.newService(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		s.T().Fatal("no remote call expected")
	}))

	_, err := svc.SignUp(context.Background(), "baru@example.com", "abc", "Orang Baru")
	require.ErrorIs(s.T(), err, identity.ErrPasswordTooShort)
}

func (s *HTTPServiceTestSuite) TestSignOutExpiredSession() {
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.T(), "Bearer stale-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	}))

	err := svc.SignOut(context.Background(), "stale-token")
	require.ErrorIs(s.T(), err, identity.ErrSessionExpired)
}

func (s *HTTPServiceTestSuite) TestUpdateProfile() {
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(s.T(), http.MethodPut, r.Method)
		require.Equal(s.T(), "/user", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "user-1",
			"email": "aminah@example.com",
			"user_metadata": map[string]any{
				"full_name": "Aminah binti Yusof",
				"phone":     "0198765432",
			},
		})
	}))

	phone := "0198765432"
	profile, err := svc.UpdateProfile(context.Background(), sampleToken, identity.ProfileUpdate{Phone: &phone})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "0198765432", profile.Phone)
}

func (s *HTTPServiceTestSuite) TestUpdateProfileRejection() {
	svc, _ := s.newService(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	phone := "0198765432"
	_, err := svc.UpdateProfile(context.Background(), sampleToken, identity.ProfileUpdate{Phone: &phone})
	require.ErrorIs(s.T(), err, identity.ErrProfileUpdateRejected)
}
