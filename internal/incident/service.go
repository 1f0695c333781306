package incident

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"incidentlog/internal/apperr"
	"incidentlog/internal/auth"
)

const (
	msgNotFound        = "incident not found"
	msgInvalidSeverity = "invalid severity value, valid values are: Low, Medium, High"
)

// ObjectStore uploads attachment bodies and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

type Service struct {
	repo     Repository
	objects  ObjectStore
	validate *validator.Validate
	log      *slog.Logger
}

// NewService builds the incident service. objects may be nil, in which case
// attachments are rejected.
func NewService(repo Repository, objects ObjectStore, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		objects:  objects,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

func (s *Service) AttachmentsEnabled() bool { return s.objects != nil }

// --------------------------------------------------
// Create incident
// --------------------------------------------------
func (s *Service) Create(ctx context.Context, reporter *auth.User, in CreateInput) (*Incident, error) {
	if reporter == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if in.Title == "" || in.Description == "" || in.Severity == "" {
		return nil, apperr.Validation("title, description, and severity are required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation("validation failed", "title must be at most 255 characters")
	}
	if !in.Severity.Valid() {
		return nil, apperr.Validation(msgInvalidSeverity)
	}

	inc := &Incident{
		Title:       in.Title,
		Description: in.Description,
		Severity:    in.Severity,
		ReporterID:  reporter.ID,
	}
	if err := s.repo.Create(ctx, inc); err != nil {
		return nil, apperr.Internal("unable to create incident", err)
	}

	s.log.InfoContext(ctx, "incident created", "incident_id", inc.ID, "severity", inc.Severity, "reporter_id", reporter.ID)
	return inc, nil
}

// --------------------------------------------------
// List incidents; mine narrows to the viewer's reports
// --------------------------------------------------
func (s *Service) List(ctx context.Context, viewer *auth.User, mine bool) ([]*Incident, error) {
	var filter ListFilter
	if mine {
		if viewer == nil {
			return nil, apperr.Unauthenticated("authentication required to list your incidents")
		}
		filter.ReporterID = viewer.ID
	}

	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal("unable to retrieve incidents", err)
	}
	return incidents, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Incident, error) {
	inc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, apperr.Internal("unable to retrieve incident", err)
	}
	return inc, nil
}

// --------------------------------------------------
// Update incident (reporter or admin)
// --------------------------------------------------
func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, in UpdateInput) (*Incident, error) {
	inc, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Severity != "" && !in.Severity.Valid() {
		return nil, apperr.Validation(msgInvalidSeverity)
	}
	if len(in.Title) > 255 {
		return nil, apperr.Validation("validation failed", "title must be at most 255 characters")
	}

	if in.Title != "" {
		inc.Title = in.Title
	}
	if in.Description != "" {
		inc.Description = in.Description
	}
	if in.Severity != "" {
		inc.Severity = in.Severity
	}

	if err := s.repo.Update(ctx, inc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, apperr.Internal("unable to update incident", err)
	}
	return inc, nil
}

// Delete reports whether anything was removed. Only admins may delete.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) (bool, error) {
	if actor == nil {
		return false, apperr.Unauthenticated("authentication required")
	}
	if !actor.IsAdmin() {
		return false, apperr.Forbidden("access denied, admin privileges required")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, apperr.Internal("unable to delete incident", err)
	}
	if deleted {
		s.log.InfoContext(ctx, "incident deleted", "incident_id", id, "by", actor.ID)
	}
	return deleted, nil
}

// --------------------------------------------------
// Attach evidence file (reporter or admin)
// --------------------------------------------------
func (s *Service) AddAttachment(ctx context.Context, actor *auth.User, id int64, meta Attachment, body io.Reader) (*Incident, error) {
	if s.objects == nil {
		return nil, apperr.NotFound("attachments are not enabled")
	}

	inc, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := AttachmentKey(id, meta.Filename)
	url, err := s.objects.Upload(ctx, key, body, meta.ContentType)
	if err != nil {
		return nil, apperr.Internal("unable to upload attachment", err)
	}

	if err := s.repo.AddAttachment(ctx, id, url); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, apperr.Internal("unable to save attachment", err)
	}

	inc.Attachments = append(inc.Attachments, url)
	s.log.InfoContext(ctx, "attachment uploaded", "incident_id", id, "key", key, "size", meta.Size)
	return inc, nil
}

// AttachmentKey namespaces uploads per incident and keeps only the
// extension of the client-supplied name.
func AttachmentKey(incidentID int64, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return fmt.Sprintf("incidents/%d/%s%s", incidentID, uuid.New().String(), ext)
}

// editable loads the incident and checks the actor may modify it.
func (s *Service) editable(ctx context.Context, actor *auth.User, id int64) (*Incident, error) {
	if actor == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}

	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.ReporterID != actor.ID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("only the reporter or an admin can modify this incident")
	}
	return inc, nil
}
