// Package feedback validates resident feedback before it is handed to
// the content backend. Every validation failure is a local error; a
// rejected submission never produces a remote call.
package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pitabwire/util"

	"github.com/pitabwire/strata/content"
	"github.com/pitabwire/strata/identity"
)

// MaxAttachmentSize is the accepted attachment limit in bytes.
const MaxAttachmentSize = 5 << 20

// Type classifies a feedback submission.
type Type string

const (
	TypeGeneral  Type = "general"
	TypeFacility Type = "facility"
	TypeSecurity Type = "security"
	TypeOther    Type = "other"
)

var (
	ErrUnknownType      = errors.New("feedback type is not recognised")
	ErrMissingSubject   = errors.New("feedback subject is required")
	ErrMissingDetails   = errors.New("feedback details are required")
	ErrAttachmentTooBig = fmt.Errorf("attachment exceeds %d bytes", MaxAttachmentSize)
	ErrAttachmentFormat = errors.New("attachment must be a JPG or PDF file")
)

var allowedAttachmentExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

// Attachment is an optional file included with a submission.
type Attachment struct {
	Filename string
	Data     []byte
}

// Submission is one resident feedback entry before validation.
type Submission struct {
	Type       Type
	Subject    string
	Details    string
	Email      string
	Attachment *Attachment
}

// Validate checks the submission locally.
func (s Submission) Validate() error {
	switch s.Type {
	case TypeGeneral, TypeFacility, TypeSecurity, TypeOther:
	default:
		return ErrUnknownType
	}

	if strings.TrimSpace(s.Subject) == "" {
		return ErrMissingSubject
	}
	if strings.TrimSpace(s.Details) == "" {
		return ErrMissingDetails
	}
	if err := identity.ValidateEmail(s.Email); err != nil {
		return err
	}

	if s.Attachment != nil {
		if len(s.Attachment.Data) > MaxAttachmentSize {
			return ErrAttachmentTooBig
		}
		ext := strings.ToLower(path.Ext(s.Attachment.Filename))
		if !allowedAttachmentExts[ext] {
			return ErrAttachmentFormat
		}
	}
	return nil
}

// Collector validates submissions and records them through the content
// backend, uploading any attachment first.
type Collector struct {
	svc content.Service
}

func NewCollector(svc content.Service) *Collector {
	return &Collector{svc: svc}
}

// Submit validates and stores one submission.
func (c *Collector) Submit(ctx context.Context, sub Submission) (*content.Feedback, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	record := content.Feedback{
		Type:    string(sub.Type),
		Subject: strings.TrimSpace(sub.Subject),
		Details: strings.TrimSpace(sub.Details),
		Email:   strings.TrimSpace(sub.Email),
	}

	if sub.Attachment != nil {
		url, err := c.svc.UploadImage(ctx, sub.Attachment.Filename, bytes.NewReader(sub.Attachment.Data))
		if err != nil {
			return nil, fmt.Errorf("attachment upload failed: %w", err)
		}
		record.AttachmentURL = url
	}

	created, err := c.svc.CreateFeedback(ctx, record)
	if err != nil {
		return nil, err
	}

	util.Log(ctx).WithField("type", record.Type).Debug("feedback recorded")
	return created, nil
}
