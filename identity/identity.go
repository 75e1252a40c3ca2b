// Package identity is the thin capability client for the hosted identity
// and profile service. The remote service owns the authoritative copy of
// every account; this package only moves data across the wire and
// classifies failures.
package identity

import (
	"context"
	"time"
)

// UserIdentity is the remote-service-authenticated principal.
type UserIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the mutable, non-authentication portion of an account.
// Exactly one profile exists per identity.
type Profile struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	UnitNumber string `json:"unit_number"`
	AvatarURL  string `json:"avatar_url"`
}

// ProfileUpdate is a partial profile change. Only provided fields are
// overwritten when applied.
type ProfileUpdate struct {
	FullName   *string `json:"full_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	UnitNumber *string `json:"unit_number,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Phone == nil && u.UnitNumber == nil && u.AvatarURL == nil
}

// Apply merges the update into a profile, leaving absent fields alone.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.UnitNumber != nil {
		p.UnitNumber = *u.UnitNumber
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	return p
}

// Session is what a successful sign in or sign up yields.
type Session struct {
	Identity     UserIdentity
	Profile      Profile
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Service is the remote identity capability. Implementations classify
// remote rejections into the sentinel errors of this package.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpdateProfile(ctx context.Context, accessToken string, update ProfileUpdate) (*Profile, error)
	RequestPasswordReset(ctx context.Context, email string) error
}
