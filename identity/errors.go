package identity

import (
	"errors"
	"net/mail"
	"strings"
)

// MinPasswordLength is enforced locally before any remote call is made.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials means the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrEmailNotConfirmed means the account exists but the address has
	// not been confirmed yet.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrEmailTaken means an account already exists for the address.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidEmail is a local validation failure.
	ErrInvalidEmail = errors.New("email address is malformed")

	// ErrPasswordTooShort is a local validation failure.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")

	// ErrProfileUpdateRejected means the remote service refused the
	// profile change.
	ErrProfileUpdateRejected = errors.New("profile update was rejected")

	// ErrSessionExpired means the access token no longer identifies a
	// live remote session.
	ErrSessionExpired = errors.New("session has expired")
)

// ValidateEmail checks the address shape locally.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum length policy locally.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ClassifyRemoteMessage maps a remote rejection message onto the error
// taxonomy. Unknown messages pass through wrapped by the caller.
func ClassifyRemoteMessage(message string) error {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "invalid login credentials"),
		strings.Contains(msg, "invalid grant"):
		return ErrInvalidCredentials
	case strings.Contains(msg, "not confirmed"):
		return ErrEmailNotConfirmed
	case strings.Contains(msg, "already registered"),
		strings.Contains(msg, "already exists"):
		return ErrEmailTaken
	default:
		return nil
	}
}
