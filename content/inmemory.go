package content

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
)

// InMemoryService keeps all content in process memory. It backs tests
// and local development.
type InMemoryService struct {
	mu            sync.Mutex
	announcements map[string]Announcement
	feedback      map[string]Feedback
	location      *MeetingLocation
	uploads       map[string][]byte

	// UploadLimit bounds accepted object sizes; zero means unlimited.
	UploadLimit int64
}

var _ Service = (*InMemoryService)(nil)

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{
		announcements: make(map[string]Announcement),
		feedback:      make(map[string]Feedback),
		uploads:       make(map[string][]byte),
	}
}

func (s *InMemoryService) ListAnnouncements(_ context.Context) ([]Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryService) CreateAnnouncement(
	_ context.Context,
	change AnnouncementChange,
) (*Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	a := Announcement{ID: xid.New().String(), CreatedAt: now, UpdatedAt: now}
	applyChange(&a, change)
	s.announcements[a.ID] = a
	return &a, nil
}

func (s *InMemoryService) UpdateAnnouncement(
	_ context.Context,
	id string,
	change AnnouncementChange,
) (*Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.announcements[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyChange(&a, change)
	a.UpdatedAt = time.Now()
	s.announcements[id] = a
	return &a, nil
}

func (s *InMemoryService) DeleteAnnouncement(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.announcements[id]; !ok {
		return ErrNotFound
	}
	delete(s.announcements, id)
	return nil
}

func (s *InMemoryService) UploadImage(
	_ context.Context,
	filename string,
	body io.Reader,
) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if s.UploadLimit > 0 && int64(len(raw)) > s.UploadLimit {
		return "", ErrUploadTooLarge
	}

	objectName := "uploads/" + xid.New().String() + strings.ToLower(path.Ext(filename))

	s.mu.Lock()
	s.uploads[objectName] = raw
	s.mu.Unlock()

	return "memory://announcements/" + objectName, nil
}

func (s *InMemoryService) MeetingLocation(_ context.Context) (*MeetingLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.location == nil {
		return nil, ErrNotFound
	}
	loc := *s.location
	return &loc, nil
}

func (s *InMemoryService) SetMeetingLocation(_ context.Context, loc MeetingLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.location = &loc
	return nil
}

func (s *InMemoryService) CreateFeedback(_ context.Context, fb Feedback) (*Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb.ID = xid.New().String()
	fb.CreatedAt = time.Now()
	s.feedback[fb.ID] = fb
	return &fb, nil
}

func applyChange(a *Announcement, change AnnouncementChange) {
	if change.Title != nil {
		a.Title = *change.Title
	}
	if change.Content != nil {
		a.Content = *change.Content
	}
	if change.ImageURL != nil {
		a.ImageURL = *change.ImageURL
	}
	if change.IsNew != nil {
		a.IsNew = *change.IsNew
	}
}
