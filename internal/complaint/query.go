package complaint

import (
	"context"
	"errors"
	"strings"

	"resolveit/backend/internal/analysis"
	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"
)

// Details is a complaint with what its readers need alongside it.
type Details struct {
	Complaint *models.Complaint
	// Officer is nil when the complaint is unassigned.
	Officer *models.User
	// Comments are filtered for the reader: internal notes for staff only.
	Comments []models.Comment
}

// FilterInput holds optional criteria; empty fields match everything.
type FilterInput struct {
	Status   string
	Category string
	Urgency  string
}

// GetMine lists the actor's own complaints. Anonymous complaints never
// appear here.
func (s *Service) GetMine(ctx context.Context, actor auth.Actor) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionViewMine); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{SubmitterID: actor.UserID()})
}

// GetAssigned lists complaints assigned to the actor.
func (s *Service) GetAssigned(ctx context.Context, actor auth.Actor) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionViewAssigned); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{AssignedOfficerID: actor.UserID()})
}

// GetAll lists every complaint.
func (s *Service) GetAll(ctx context.Context, actor auth.Actor) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionViewAll); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{})
}

// GetPublic lists every complaint for the public board. Callers must
// render it through the redacted projection.
func (s *Service) GetPublic(ctx context.Context) ([]models.Complaint, error) {
	return s.list(ctx, storage.ComplaintFilter{})
}

// Filter matches status, category and urgency conjunctively.
func (s *Service) Filter(ctx context.Context, actor auth.Actor, in FilterInput) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionFilter); err != nil {
		return nil, err
	}

	var f storage.ComplaintFilter
	if strings.TrimSpace(in.Status) != "" {
		st, ok := s.Workflow.NormalizeStatus(in.Status)
		if !ok {
			return nil, apperr.NewValidationError("status", "unknown status "+in.Status)
		}
		f.Status = st
	}
	if strings.TrimSpace(in.Category) != "" {
		cat, ok := s.Workflow.NormalizeCategory(in.Category)
		if !ok {
			return nil, apperr.NewValidationError("category", "unknown category "+in.Category)
		}
		f.Category = cat
	}
	if strings.TrimSpace(in.Urgency) != "" {
		u, ok := config.NormalizeUrgency(in.Urgency)
		if !ok {
			return nil, apperr.NewValidationError("urgency", "unknown urgency "+in.Urgency)
		}
		f.Urgency = u
	}
	return s.list(ctx, f)
}

// GetEscalated lists open escalated complaints.
func (s *Service) GetEscalated(ctx context.Context, actor auth.Actor) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionAdminLists); err != nil {
		return nil, err
	}
	escalated := true
	return s.list(ctx, storage.ComplaintFilter{Escalated: &escalated, ExcludeStatuses: s.Workflow.Terminal})
}

// GetUnresolved lists every complaint not in a terminal status.
func (s *Service) GetUnresolved(ctx context.Context, actor auth.Actor) ([]models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionAdminLists); err != nil {
		return nil, err
	}
	return s.list(ctx, storage.ComplaintFilter{ExcludeStatuses: s.Workflow.Terminal})
}

// GetByID returns one complaint with its officer and the comments the
// actor may read.
func (s *Service) GetByID(ctx context.Context, actor auth.Actor, id uint) (*Details, error) {
	if err := auth.Authorize(actor, auth.ActionViewComplaint); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, c) {
		return nil, apperr.NewAuthorizationError("view this complaint", actor.Role.String())
	}

	details, err := s.Hydrate(ctx, actor, []models.Complaint{*c})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// GetTimeline returns the audit trail oldest first. Internal entries are
// only included for staff; for anyone else the flag is ignored.
func (s *Service) GetTimeline(ctx context.Context, actor auth.Actor, id uint, includeInternal bool) ([]models.TimelineEntry, error) {
	if err := auth.Authorize(actor, auth.ActionViewComplaint); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, c) {
		return nil, apperr.NewAuthorizationError("view this complaint", actor.Role.String())
	}

	entries, err := s.Storage.ListTimeline(ctx, id, includeInternal && actor.Role.IsStaff())
	if err != nil {
		return nil, s.storageErr(err, "complaint", id)
	}
	return entries, nil
}

// CanViewAttachment resolves a stored attachment to its complaint and
// checks that the actor may read it.
func (s *Service) CanViewAttachment(ctx context.Context, actor auth.Actor, path string) (*models.Complaint, error) {
	if err := auth.Authorize(actor, auth.ActionViewComplaint); err != nil {
		return nil, err
	}
	c, err := s.Storage.FindComplaintByAttachment(ctx, path)
	if err != nil {
		return nil, s.storageErr(err, "file", path)
	}
	if !canView(actor, c) {
		return nil, apperr.NewAuthorizationError("view this file", actor.Role.String())
	}
	return c, nil
}

// ListOfficers lists users who can be assigned complaints.
func (s *Service) ListOfficers(ctx context.Context, actor auth.Actor, includeAdmins bool) ([]models.User, error) {
	if err := auth.Authorize(actor, auth.ActionListOfficers); err != nil {
		return nil, err
	}
	roles := []string{models.RoleOfficer}
	if includeAdmins {
		roles = append(roles, models.RoleAdmin)
	}
	users, err := s.Storage.ListUsersByRole(ctx, roles...)
	if err != nil {
		return nil, s.storageErr(err, "officer", "list")
	}
	return users, nil
}

// Stats aggregates every complaint for the dashboard.
func (s *Service) Stats(ctx context.Context, actor auth.Actor) (*analysis.Summary, error) {
	if err := auth.Authorize(actor, auth.ActionViewStats); err != nil {
		return nil, err
	}
	all, err := s.list(ctx, storage.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	summary := analysis.Summarize(all, s.Workflow, s.now())
	return &summary, nil
}

// Hydrate attaches officers and reader-visible comments to complaints.
func (s *Service) Hydrate(ctx context.Context, actor auth.Actor, complaints []models.Complaint) ([]Details, error) {
	officers := make(map[uint]*models.User)
	out := make([]Details, 0, len(complaints))
	for i := range complaints {
		c := complaints[i]
		d := Details{Complaint: &c}

		if c.AssignedOfficerID != nil {
			oid := *c.AssignedOfficerID
			officer, ok := officers[oid]
			if !ok {
				u, err := s.Storage.GetUserByID(ctx, oid)
				switch {
				case err == nil:
					officer = u
				case errors.Is(err, storage.ErrNotFound):
					officer = nil
				default:
					return nil, s.storageErr(err, "officer", oid)
				}
				officers[oid] = officer
			}
			d.Officer = officer
		}

		comments, err := s.Storage.ListComments(ctx, c.ID, actor.Role.IsStaff())
		if err != nil {
			return nil, s.storageErr(err, "complaint", c.ID)
		}
		d.Comments = comments
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	out, err := s.Storage.ListComplaints(ctx, f)
	if err != nil {
		return nil, s.storageErr(err, "complaint", "list")
	}
	return out, nil
}
