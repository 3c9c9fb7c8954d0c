package storage

import (
	"context"
	"errors"
	"time"

	"resolveit/backend/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by UpdateComplaint when the stored
	// version no longer matches the expected one.
	ErrVersionConflict = errors.New("complaint was modified concurrently")
	// ErrDuplicate is returned when a unique username or email is taken.
	ErrDuplicate = errors.New("duplicate record")
)

// ComplaintFilter selects complaints. Zero fields match everything; set
// fields are combined with AND.
type ComplaintFilter struct {
	Status            string
	Category          string
	Urgency           string
	SubmitterID       *uint
	AssignedOfficerID *uint
	// Unassigned selects complaints with no officer.
	Unassigned bool
	// Escalated selects by whether escalatedAt is set.
	Escalated *bool
	// ExcludeStatuses drops complaints in any of these statuses.
	ExcludeStatuses []string
	// DeadlineBefore selects complaints with a deadline strictly before it.
	DeadlineBefore *time.Time
	// CreatedBefore selects complaints created strictly before it.
	CreatedBefore *time.Time
}

// Storage persists complaints, their audit trail and user accounts.
// Lists are returned newest first.
type Storage interface {
	// CreateComplaint assigns c.ID and stores c with its first timeline entry.
	CreateComplaint(ctx context.Context, c *models.Complaint, entry *models.TimelineEntry) error
	GetComplaint(ctx context.Context, id uint) (*models.Complaint, error)
	// UpdateComplaint writes c only if the stored version equals
	// expectedVersion, bumping c.Version, and appends entries atomically.
	UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int, entries ...*models.TimelineEntry) error
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	FindComplaintByAttachment(ctx context.Context, path string) (*models.Complaint, error)

	// AddComment appends a comment and its timeline entry. It does not
	// touch the complaint row.
	AddComment(ctx context.Context, comment *models.Comment, entry *models.TimelineEntry) error
	// ListComments returns comments oldest first.
	ListComments(ctx context.Context, complaintID uint, includeInternal bool) ([]models.Comment, error)
	// ListTimeline returns entries oldest first.
	ListTimeline(ctx context.Context, complaintID uint, includeInternal bool) ([]models.TimelineEntry, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// ListUsersByRole returns users holding any of roles, by id.
	ListUsersByRole(ctx context.Context, roles ...string) ([]models.User, error)
	UpdateUserRoles(ctx context.Context, id uint, roles []string) error
}
