package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/rs/xid"

	"github.com/pitabwire/strata/config"
)

const (
	restPathPrefix    = "/rest/v1"
	storagePathPrefix = "/storage/v1/object"

	meetingLocationKey = "default"
)

// HTTPService speaks the PostgREST and storage API of the hosted
// content backend.
type HTTPService struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

var _ Service = (*HTTPService)(nil)

// NewHTTPService creates the remote content client from configuration.
func NewHTTPService(cfg config.ConfigurationContent, client *http.Client) *HTTPService {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPService{
		baseURL: strings.TrimRight(cfg.GetContentServiceURI(), "/"),
		apiKey:  cfg.GetContentServiceKey(),
		bucket:  cfg.GetContentBucketName(),
		client:  client,
	}
}

func (s *HTTPService) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	var out []Announcement
	err := s.rest(ctx, http.MethodGet,
		"/announcements?select=*&order=created_at.desc", "", nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPService) CreateAnnouncement(
	ctx context.Context,
	change AnnouncementChange,
) (*Announcement, error) {
	var out []Announcement
	err := s.rest(ctx, http.MethodPost, "/announcements",
		"return=representation", change, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("create returned no announcement record")
	}
	return &out[0], nil
}

func (s *HTTPService) UpdateAnnouncement(
	ctx context.Context,
	id string,
	change AnnouncementChange,
) (*Announcement, error) {
	var out []Announcement
	err := s.rest(ctx, http.MethodPatch, "/announcements?id=eq."+id,
		"return=representation", change, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *HTTPService) DeleteAnnouncement(ctx context.Context, id string) error {
	return s.rest(ctx, http.MethodDelete, "/announcements?id=eq."+id, "", nil, nil)
}

// UploadImage stores the object under uploads/ with a fresh identifier
// so repeated uploads of the same file never collide.
func (s *HTTPService) UploadImage(
	ctx context.Context,
	filename string,
	body io.Reader,
) (string, error) {
	objectName := "uploads/" + xid.New().String() + strings.ToLower(path.Ext(filename))
	uploadURL := fmt.Sprintf("%s%s/%s/%s", s.baseURL, storagePathPrefix, s.bucket, objectName)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return "", err
	}
	s.authorize(hreq)
	hreq.Header.Set("Content-Type", "application/octet-stream")

	hresp, err := s.client.Do(hreq)
	if err != nil {
		return "", err
	}
	defer hresp.Body.Close()

	if hresp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", ErrUploadTooLarge
	}
	if hresp.StatusCode/100 != 2 {
		return "", fmt.Errorf("upload of %q failed: %s", objectName, hresp.Status)
	}

	publicURL := fmt.Sprintf("%s%s/public/%s/%s", s.baseURL, storagePathPrefix, s.bucket, objectName)
	return publicURL, nil
}

func (s *HTTPService) MeetingLocation(ctx context.Context) (*MeetingLocation, error) {
	var out []MeetingLocation
	err := s.rest(ctx, http.MethodGet,
		"/meeting_location?select=*&id=eq."+meetingLocationKey, "", nil, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (s *HTTPService) SetMeetingLocation(ctx context.Context, loc MeetingLocation) error {
	record := map[string]any{
		"id":       meetingLocationKey,
		"venue":    loc.Venue,
		"schedule": loc.Schedule,
		"map_url":  loc.MapURL,
	}
	return s.rest(ctx, http.MethodPost, "/meeting_location",
		"resolution=merge-duplicates", record, nil)
}

func (s *HTTPService) CreateFeedback(ctx context.Context, fb Feedback) (*Feedback, error) {
	var out []Feedback
	err := s.rest(ctx, http.MethodPost, "/feedback", "return=representation", fb, &out)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("create returned no feedback record")
	}
	return &out[0], nil
}

func (s *HTTPService) rest(
	ctx context.Context,
	method, pathAndQuery, prefer string,
	body, out any,
) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, s.baseURL+restPathPrefix+pathAndQuery, reader)
	if err != nil {
		return err
	}
	s.authorize(hreq)
	hreq.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		hreq.Header.Set("Prefer", prefer)
	}

	hresp, err := s.client.Do(hreq)
	if err != nil {
		return err
	}
	defer hresp.Body.Close()

	if hresp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if hresp.StatusCode/100 != 2 {
		return fmt.Errorf("content request %s %q failed: %s", method, pathAndQuery, hresp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(hresp.Body).Decode(out)
}

func (s *HTTPService) authorize(hreq *http.Request) {
	if s.apiKey == "" {
		return
	}
	hreq.Header.Set("apikey", s.apiKey)
	hreq.Header.Set("Authorization", "Bearer "+s.apiKey)
}
