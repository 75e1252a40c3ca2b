// Package content is the capability client for portal content managed
// by developers: announcements with their images, the meeting location
// widget, and submitted feedback.
package content

import (
	"context"
	"errors"
	"io"
	"time"
)

// Announcement is one community notice on the landing page.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	IsNew     bool      `json:"is_new"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnnouncementChange carries the editable announcement fields. Nil
// fields are left untouched on update.
type AnnouncementChange struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
	IsNew    *bool   `json:"is_new,omitempty"`
}

// MeetingLocation is the recurring meeting widget shown to residents.
type MeetingLocation struct {
	Venue    string `json:"venue"`
	Schedule string `json:"schedule"`
	MapURL   string `json:"map_url,omitempty"`
}

// Feedback is one submitted resident feedback entry.
type Feedback struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Subject       string    `json:"subject"`
	Details       string    `json:"details"`
	Email         string    `json:"email"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("content record not found")

	// ErrUploadTooLarge means the object exceeded the upload limit.
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")
)

// Service is the remote content capability. Listing is public; all
// mutations assume the caller already checked the viewer's role.
type Service interface {
	ListAnnouncements(ctx context.Context) ([]Announcement, error)
	CreateAnnouncement(ctx context.Context, change AnnouncementChange) (*Announcement, error)
	UpdateAnnouncement(ctx context.Context, id string, change AnnouncementChange) (*Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error

	// UploadImage stores the object under the announcements bucket and
	// returns its public URL.
	UploadImage(ctx context.Context, filename string, body io.Reader) (string, error)

	MeetingLocation(ctx context.Context) (*MeetingLocation, error)
	SetMeetingLocation(ctx context.Context, loc MeetingLocation) error

	CreateFeedback(ctx context.Context, fb Feedback) (*Feedback, error)
}
