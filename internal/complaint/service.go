// Package complaint is the single authority for complaint state
// transitions. Every operation takes the acting identity explicitly,
// checks it against the permission table and the complaint's current
// state, and persists the result with an optimistic version check.
package complaint

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"
)

// Service handles the business logic for complaints.
type Service struct {
	Storage   storage.Storage
	Workflow  *config.Workflow
	Publisher Publisher
	// Now is the service clock; createdAt and all audit times come from it.
	Now    func() time.Time
	Logger *slog.Logger
}

// NewService creates a new complaint service.
func NewService(s storage.Storage, wf *config.Workflow) *Service {
	return &Service{
		Storage:   s,
		Workflow:  wf,
		Publisher: NopPublisher{},
		Now:       time.Now,
		Logger:    logging.Default(),
	}
}

// change describes what a successful mutation records. A nil change means
// the operation was a no-op and nothing is written.
type change struct {
	action   string
	event    string
	comment  string
	internal bool
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

// load fetches a complaint, translating storage errors.
func (s *Service) load(ctx context.Context, id uint) (*models.Complaint, error) {
	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, s.storageErr(err, "complaint", id)
	}
	return c, nil
}

// mutate runs load, apply, conditional write. The write only succeeds if
// nobody else changed the complaint since it was loaded; the loser gets a
// ConflictError.
func (s *Service) mutate(ctx context.Context, actor auth.Actor, id uint, apply func(c *models.Complaint) (*change, error)) (*models.Complaint, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ch, err := apply(c)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return c, nil
	}

	expected := c.Version
	c.UpdatedAt = s.now()
	entry := s.entry(actor, ch.action, c.Status, ch.comment, ch.internal)
	if err := s.Storage.UpdateComplaint(ctx, c, expected, entry); err != nil {
		return nil, s.storageErr(err, "complaint", id)
	}

	s.publish(ctx, actor, ch.event, c, ch.comment, ch.internal)
	return c, nil
}

func (s *Service) entry(actor auth.Actor, action, status, comment string, internal bool) *models.TimelineEntry {
	return &models.TimelineEntry{
		Action:    action,
		Status:    status,
		Comment:   comment,
		Internal:  internal,
		ActorID:   actor.UserID(),
		ActorName: actor.DisplayName(),
		CreatedAt: s.now(),
	}
}

func (s *Service) publish(ctx context.Context, actor auth.Actor, eventType string, c *models.Complaint, comment string, internal bool) {
	ev := models.ComplaintEvent{
		Type:              eventType,
		ComplaintID:       c.ID,
		Status:            c.Status,
		Category:          c.Category,
		Urgency:           c.Urgency,
		Actor:             actor.DisplayName(),
		ActorID:           actor.UserID(),
		Comment:           comment,
		AssignedOfficerID: c.AssignedOfficerID,
		Internal:          internal,
		At:                s.now(),
	}
	if !c.Anonymous {
		ev.SubmitterID = c.SubmitterID
	}
	if err := s.Publisher.Publish(ctx, ev); err != nil {
		s.Logger.Warn("failed to publish complaint event",
			append([]any{"type", eventType, "complaint_id", c.ID}, logging.ErrAttrs(err)...)...)
	}
}

func (s *Service) storageErr(err error, resource string, id any) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NewNotFoundError(resource, id)
	case errors.Is(err, storage.ErrVersionConflict):
		return &apperr.ConflictError{Message: "modified concurrently", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.NewTransientError("storage operation interrupted", err)
	default:
		return goerr.Wrap(err, "storage failure", goerr.V("resource", resource), goerr.V("id", id))
	}
}

// ensureOpen rejects terminal complaints.
func (s *Service) ensureOpen(c *models.Complaint) error {
	if s.Workflow.IsTerminal(c.Status) {
		return apperr.NewConflictError("complaint is already " + c.Status)
	}
	return nil
}

// escalatedInStatus reports whether the complaint's status is the
// workflow's escalated status.
func (s *Service) escalatedInStatus(c *models.Complaint) bool {
	return s.Workflow.HasEscalatedStatus() && c.Status == s.Workflow.EscalatedStatus
}

// canView reports whether actor may read the complaint.
func canView(actor auth.Actor, c *models.Complaint) bool {
	return actor.Role.IsStaff() || (actor.IsAuthenticated() && c.IsSubmittedBy(actor.ID))
}
