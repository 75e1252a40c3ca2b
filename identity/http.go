package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/config"
)

const (
	httpStatusOKClass = 2

	tintAttrCodeDuration = 214
)

// HTTPService talks to a hosted GoTrue-style identity API.
type HTTPService struct {
	baseURL       string
	apiKey        string
	client        *http.Client
	verifier      *TokenVerifier
	slowThreshold time.Duration
}

var _ Service = (*HTTPService)(nil)

// NewHTTPService creates the remote identity client from configuration.
func NewHTTPService(cfg config.ConfigurationIdentity, client *http.Client) *HTTPService {
	if client == nil {
		client = http.DefaultClient
	}

	slowThreshold := config.DefaultSlowCallThreshold
	var baseURL, apiKey string
	if cfg != nil {
		baseURL = strings.TrimRight(cfg.GetIdentityServiceURI(), "/")
		apiKey = cfg.GetIdentityServiceKey()
		slowThreshold = cfg.GetSlowCallThreshold()
	}

	return &HTTPService{
		baseURL:       baseURL,
		apiKey:        apiKey,
		client:        client,
		verifier:      NewTokenVerifier(cfg),
		slowThreshold: slowThreshold,
	}
}

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userPayload) identity() UserIdentity {
	return UserIdentity{ID: u.ID, Email: u.Email}
}

func (u userPayload) profile() Profile {
	str := func(key string) string {
		val, _ := u.UserMetadata[key].(string)
		return val
	}
	return Profile{
		FullName:   str("full_name"),
		Phone:      str("phone"),
		UnitNumber: str("unit_number"),
		AvatarURL:  str("avatar_url"),
	}
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         userPayload `json:"user"`
}

func (t tokenResponse) session() *Session {
	return &Session{
		Identity:     t.User.identity(),
		Profile:      t.User.profile(),
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(t.ExpiresIn) * time.Second),
	}
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorPayload) text() string {
	for _, candidate := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// SignIn delegates to the remote password grant.
func (s *HTTPService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	var res tokenResponse
	err := s.do(ctx, "sign_in", http.MethodPost, "/token?grant_type=password", "",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}

	if _, err = s.verifier.Verify(res.AccessToken); err != nil {
		return nil, fmt.Errorf("access token failed verification: %w", err)
	}

	return res.session(), nil
}

// SignUp creates a remote identity with the profile seeded from the
// supplied full name. The password policy is enforced before the call.
func (s *HTTPService) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}

	var res tokenResponse
	if err := s.do(ctx, "sign_up", http.MethodPost, "/signup", "", payload, &res); err != nil {
		return nil, err
	}

	if res.AccessToken == "" {
		// The deployment requires the address to be confirmed first.
		return nil, ErrEmailNotConfirmed
	}

	return res.session(), nil
}

// SignOut requests remote invalidation of the session.
func (s *HTTPService) SignOut(ctx context.Context, accessToken string) error {
	return s.do(ctx, "sign_out", http.MethodPost, "/logout", accessToken, nil, nil)
}

// UpdateProfile pushes a partial profile change and returns the merged
// remote copy.
func (s *HTTPService) UpdateProfile(
	ctx context.Context,
	accessToken string,
	update ProfileUpdate,
) (*Profile, error) {
	var res userPayload
	err := s.do(ctx, "update_profile", http.MethodPut, "/user", accessToken,
		map[string]ProfileUpdate{"data": update}, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileUpdateRejected, err)
	}

	profile := res.profile()
	return &profile, nil
}

// RequestPasswordReset triggers the reset email for the address.
func (s *HTTPService) RequestPasswordReset(ctx context.Context, email string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return s.do(ctx, "password_reset", http.MethodPost, "/recover", "",
		map[string]string{"email": email}, nil)
}

func (s *HTTPService) do(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	hreq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		hreq.Header.Set("apikey", s.apiKey)
	}
	if token != "" {
		hreq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()

	//nolint:bodyclose // closed by util.CloseAndLogOnError below
	hresp, err := s.client.Do(hreq)
	if err != nil {
		return err
	}
	defer util.CloseAndLogOnError(ctx, hresp.Body)

	if elapsed := time.Since(start); elapsed > s.slowThreshold {
		util.Log(ctx).SLog().LogAttrs(ctx, slog.LevelWarn, "identity call was slow",
			tint.Attr(tintAttrCodeDuration, slog.Any("duration", elapsed.String())),
			slog.String("operation", op))
	}

	if hresp.StatusCode/100 != httpStatusOKClass {
		var remoteErr errorPayload
		_ = json.NewDecoder(hresp.Body).Decode(&remoteErr)

		if classified := ClassifyRemoteMessage(remoteErr.text()); classified != nil {
			return classified
		}
		if hresp.StatusCode == http.StatusUnauthorized {
			return ErrSessionExpired
		}
		return fmt.Errorf("identity service request %q failed: %d %s",
			path, hresp.StatusCode, hresp.Status)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(hresp.Body).Decode(out)
}
