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

// AddComment appends a public comment or an internal note. It never
// changes the complaint itself, so it does not take part in versioning.
func (s *Service) AddComment(ctx context.Context, actor auth.Actor, id uint, text string, internal bool) (*models.Comment, error) {
	perm := auth.ActionComment
	if internal {
		perm = auth.ActionAddNote
	}
	if err := auth.Authorize(actor, perm); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.NewValidationError("comment", "is required")
	}
	if utf8.RuneCountInString(text) > config.MaxCommentLength {
		return nil, apperr.NewValidationError("comment", "is too long")
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, c) {
		return nil, apperr.NewAuthorizationError("comment on this complaint", actor.Role.String())
	}

	now := s.now()
	comment := &models.Comment{
		ComplaintID: c.ID,
		AuthorID:    actor.UserID(),
		AuthorName:  actor.DisplayName(),
		Text:        text,
		Internal:    internal,
		CreatedAt:   now,
	}
	action := models.ActionComment
	if internal {
		action = models.ActionNote
	}
	entry := s.entry(actor, action, c.Status, text, internal)

	if err := s.Storage.AddComment(ctx, comment, entry); err != nil {
		return nil, s.storageErr(err, "complaint", id)
	}

	s.publish(ctx, actor, models.EventCommented, c, text, internal)
	return comment, nil
}

// GetNotes lists the internal notes of a complaint, oldest first.
func (s *Service) GetNotes(ctx context.Context, actor auth.Actor, id uint) ([]models.Comment, error) {
	if err := auth.Authorize(actor, auth.ActionViewNotes); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	all, err := s.Storage.ListComments(ctx, id, true)
	if err != nil {
		return nil, s.storageErr(err, "complaint", id)
	}
	notes := make([]models.Comment, 0, len(all))
	for _, cm := range all {
		if cm.Internal {
			notes = append(notes, cm)
		}
	}
	return notes, nil
}
