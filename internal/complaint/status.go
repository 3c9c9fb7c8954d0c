package complaint

import (
	"context"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/models"
)

// UpdateStatus moves a complaint along one edge of the workflow graph.
// Requesting the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id uint, status, comment string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionUpdateStatus); err != nil {
		return nil, err
	}
	target, ok := s.Workflow.NormalizeStatus(status)
	if !ok {
		return nil, apperr.NewValidationError("status", "unknown status "+status)
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.checkOwnership(actor, c, "update the status of"); err != nil {
			return nil, err
		}
		if c.Status == target {
			return nil, nil
		}
		if !s.Workflow.CanTransition(c.Status, target) {
			return nil, apperr.NewInvalidTransitionError(c.Status, target)
		}
		if target == s.Workflow.ResolvedStatus {
			if err := s.checkResolvable(c); err != nil {
				return nil, err
			}
		}

		prev := c.Status
		now := s.now()
		c.Status = target
		switch {
		case s.Workflow.HasEscalatedStatus() && target == s.Workflow.EscalatedStatus:
			if c.EscalatedAt == nil {
				c.EscalatedAt = &now
			}
			c.PreEscalationStatus = prev
		case s.Workflow.HasEscalatedStatus() && prev == s.Workflow.EscalatedStatus && !s.Workflow.IsTerminal(target):
			c.EscalatedAt = nil
			c.PreEscalationStatus = ""
		}
		if target == s.Workflow.ResolvedStatus {
			c.ResolvedAt = &now
		}

		if comment == "" {
			comment = "Status changed from " + prev + " to " + target
		}
		event := models.EventStatusChanged
		if target == s.Workflow.ResolvedStatus {
			event = models.EventResolved
		}
		return &change{action: models.ActionStatusChanged, event: event, comment: comment}, nil
	})
}

// Escalate flags a complaint for attention and, when the workflow has an
// escalated status, moves it there. Escalating an escalated complaint is
// a no-op. Automatic escalation calls this with the system actor.
func (s *Service) Escalate(ctx context.Context, actor auth.Actor, id uint, reason string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionEscalate); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}
		if c.IsEscalated() {
			return nil, nil
		}

		now := s.now()
		c.EscalatedAt = &now
		if s.Workflow.HasEscalatedStatus() {
			c.PreEscalationStatus = c.Status
			c.Status = s.Workflow.EscalatedStatus
		}

		if reason == "" {
			reason = "Complaint escalated"
		}
		return &change{action: models.ActionEscalated, event: models.EventEscalated, comment: reason}, nil
	})
}

// DeEscalate clears the escalation and restores the status the complaint
// had before it. On a complaint that is not escalated the workflow policy
// decides between a no-op and a conflict.
func (s *Service) DeEscalate(ctx context.Context, actor auth.Actor, id uint, comment string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionDeEscalate); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}
		if !c.IsEscalated() {
			if s.Workflow.Policy.DeEscalateIdempotent {
				return nil, nil
			}
			return nil, apperr.NewConflictError("complaint is not escalated")
		}

		c.EscalatedAt = nil
		clearedAt := s.now().UTC()
		c.DeEscalatedAt = &clearedAt
		if s.escalatedInStatus(c) {
			fallback := s.Workflow.UnassignedStatus
			if c.IsAssigned() {
				fallback = s.Workflow.AssignedStatus
			}
			restore := c.PreEscalationStatus
			if restore == "" || restore == s.Workflow.EscalatedStatus || s.Workflow.IsTerminal(restore) {
				restore = fallback
			}
			c.Status = s.restoreStatus(restore)
		}
		c.PreEscalationStatus = ""

		if comment == "" {
			comment = "Escalation cleared"
		}
		return &change{action: models.ActionDeEscalated, event: models.EventDeEscalated, comment: comment}, nil
	})
}

// MarkCompleted records that the assigned officer finished the work.
func (s *Service) MarkCompleted(ctx context.Context, actor auth.Actor, id uint) (*models.Complaint, error) {
	return s.resolve(ctx, actor, id, auth.ActionComplete, models.ActionCompleted, "Marked as completed")
}

// MarkResolved closes out the complaint as resolved.
func (s *Service) MarkResolved(ctx context.Context, actor auth.Actor, id uint) (*models.Complaint, error) {
	return s.resolve(ctx, actor, id, auth.ActionResolve, models.ActionResolved, "Marked as resolved")
}

func (s *Service) resolve(ctx context.Context, actor auth.Actor, id uint, perm auth.Action, action, comment string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, perm); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(c *models.Complaint) (*change, error) {
		if err := s.checkOwnership(actor, c, "resolve"); err != nil {
			return nil, err
		}
		if c.Status == s.Workflow.ResolvedStatus {
			return nil, nil
		}
		if err := s.ensureOpen(c); err != nil {
			return nil, err
		}
		if err := s.checkResolvable(c); err != nil {
			return nil, err
		}

		now := s.now()
		c.Status = s.Workflow.ResolvedStatus
		c.ResolvedAt = &now
		return &change{action: action, event: models.EventResolved, comment: comment}, nil
	})
}

// checkOwnership limits officers to complaints assigned to them.
func (s *Service) checkOwnership(actor auth.Actor, c *models.Complaint, verb string) error {
	if actor.Role == auth.RoleOfficer && !c.IsAssignedTo(actor.ID) {
		return apperr.NewAuthorizationError(verb+" a complaint assigned to someone else", actor.Role.String())
	}
	return nil
}

func (s *Service) checkResolvable(c *models.Complaint) error {
	if s.Workflow.Policy.RequireAssigneeToResolve && !c.IsAssigned() {
		return apperr.NewConflictError("complaint has no assigned officer")
	}
	return nil
}
