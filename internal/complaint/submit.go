package complaint

import (
	"context"
	"strings"
	"unicode/utf8"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/models"
)

// SubmitInput is a new complaint as entered by the complainant.
type SubmitInput struct {
	Category    string
	Description string
	Urgency     string
	// AttachmentPath is the stored file name returned by the upload store.
	AttachmentPath string
	// Anonymous drops the submitter identity, even for a signed-in actor.
	Anonymous bool
}

// Submit creates a complaint in the workflow's initial status.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, in SubmitInput) (*models.Complaint, error) {
	anonymous := in.Anonymous || !actor.IsAuthenticated()
	action := auth.ActionSubmit
	if anonymous {
		action = auth.ActionSubmitAnonymous
	}
	if err := auth.Authorize(actor, action); err != nil {
		return nil, err
	}

	category, description, urgency, err := s.validateSubmission(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &models.Complaint{
		Category:       category,
		Description:    description,
		Urgency:        urgency,
		Status:         s.Workflow.Initial,
		Anonymous:      anonymous,
		AttachmentPath: in.AttachmentPath,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	author := auth.Anonymous()
	if !anonymous {
		author = actor
		c.SubmitterID = actor.UserID()
		c.SubmitterName = actor.Username
	}

	entry := s.entry(author, models.ActionSubmitted, c.Status, "Complaint submitted", false)
	if err := s.Storage.CreateComplaint(ctx, c, entry); err != nil {
		return nil, s.storageErr(err, "complaint", "new")
	}

	s.Logger.Info("complaint submitted", "complaint_id", c.ID, "category", c.Category, "urgency", c.Urgency, "anonymous", anonymous)
	s.publish(ctx, author, models.EventSubmitted, c, "", false)
	return c, nil
}

func (s *Service) validateSubmission(in SubmitInput) (category, description, urgency string, err error) {
	if strings.TrimSpace(in.Category) == "" {
		return "", "", "", apperr.NewValidationError("category", "is required")
	}
	category, ok := s.Workflow.NormalizeCategory(in.Category)
	if !ok {
		return "", "", "", apperr.NewValidationError("category", "unknown category "+in.Category)
	}

	description = strings.TrimSpace(in.Description)
	if description == "" {
		return "", "", "", apperr.NewValidationError("description", "is required")
	}
	if utf8.RuneCountInString(description) > config.MaxDescriptionLength {
		return "", "", "", apperr.NewValidationError("description", "is too long")
	}

	if strings.TrimSpace(in.Urgency) == "" {
		return "", "", "", apperr.NewValidationError("urgency", "is required")
	}
	urgency, ok = config.NormalizeUrgency(in.Urgency)
	if !ok {
		return "", "", "", apperr.NewValidationError("urgency", "must be LOW, MEDIUM or HIGH")
	}
	return category, description, urgency, nil
}
