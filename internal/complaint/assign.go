package complaint

import (
	"context"
	"errors"
	"time"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"
)

// AssignInput names the officer taking over a complaint.
type AssignInput struct {
	OfficerID uint
	// Deadline is optional; nil leaves the complaint without one.
	Deadline *time.Time
	Comment  string
}

// Assign hands a complaint to an officer and moves it to the workflow's
// assigned status. Reassigning keeps the status recorded at the first
// assignment so Unassign can restore it.
func (s *Service) Assign(ctx context.Context, actor auth.Actor, id uint, in AssignInput) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionAssign); err != nil {
		return nil, err
	}
	if in.OfficerID == 0 {
		return nil, apperr.NewValidationError("officerId", "is required")
	}
	if err := s.checkDeadline(in.Deadline); err != nil {
		return nil, err
	}

	officer, err := s.Storage.GetUserByID(ctx, in.OfficerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NewNotFoundError("officer", in.OfficerID)
	}
	if err != nil {
		return nil, s.storageErr(err, "officer", in.OfficerID)
	}
	if !officer.IsStaff() {
		return nil, apperr.NewValidationError("officerId", "user "+officer.Username+" is not an officer")
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}

		if !c.IsAssigned() {
			pre := c.Status
			if s.escalatedInStatus(c) {
				pre = c.PreEscalationStatus
			}
			c.PreAssignStatus = pre
		}

		officerID := officer.ID
		c.AssignedOfficerID = &officerID
		c.Deadline = nil
		if in.Deadline != nil {
			d := in.Deadline.UTC()
			c.Deadline = &d
		}
		if s.escalatedInStatus(c) {
			c.PreEscalationStatus = s.Workflow.AssignedStatus
		} else {
			c.Status = s.Workflow.AssignedStatus
		}

		comment := in.Comment
		if comment == "" {
			comment = "Assigned to " + officer.DisplayName()
		}
		return &change{action: models.ActionAssigned, event: models.EventAssigned, comment: comment}, nil
	})
}

// Unassign removes the officer and deadline and restores the status the
// complaint had before its first assignment.
func (s *Service) Unassign(ctx context.Context, actor auth.Actor, id uint) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionUnassign); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}
		if !c.IsAssigned() {
			return nil, apperr.NewConflictError("complaint is not assigned")
		}

		restore := s.restoreStatus(c.PreAssignStatus)
		if s.escalatedInStatus(c) {
			c.PreEscalationStatus = restore
		} else {
			c.Status = restore
		}
		c.AssignedOfficerID = nil
		c.Deadline = nil
		c.PreAssignStatus = ""

		return &change{action: models.ActionUnassigned, event: models.EventUnassigned, comment: "Officer unassigned"}, nil
	})
}

// restoreStatus validates a remembered status, falling back to the
// unassigned status and then the initial one.
func (s *Service) restoreStatus(remembered string) string {
	for _, candidate := range []string{remembered, s.Workflow.UnassignedStatus, s.Workflow.Initial} {
		if _, ok := s.Workflow.NormalizeStatus(candidate); !ok {
			continue
		}
		if s.Workflow.IsTerminal(candidate) || (s.Workflow.HasEscalatedStatus() && candidate == s.Workflow.EscalatedStatus) {
			continue
		}
		return candidate
	}
	return s.Workflow.Initial
}

// UpdateDeadline changes the deadline of an assigned complaint.
func (s *Service) UpdateDeadline(ctx context.Context, actor auth.Actor, id uint, deadline *time.Time, comment string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionUpdateDeadline); err != nil {
		return nil, err
	}
	if deadline == nil {
		return nil, apperr.NewValidationError("deadline", "is required")
	}
	if err := s.checkDeadline(deadline); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}
		if !c.IsAssigned() {
			return nil, apperr.NewConflictError("complaint is not assigned")
		}

		d := deadline.UTC()
		c.Deadline = &d
		if comment == "" {
			comment = "Deadline set to " + d.Format(config.TimelineTimeFormat)
		}
		return &change{action: models.ActionDeadlineUpdated, event: models.EventDeadline, comment: comment}, nil
	})
}

func (s *Service) checkDeadline(deadline *time.Time) error {
	if deadline != nil && deadline.Before(s.now()) {
		return apperr.NewValidationError("deadline", "must not be in the past")
	}
	return nil
}
