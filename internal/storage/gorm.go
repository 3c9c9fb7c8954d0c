package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"

	"resolveit/backend/internal/models"
)

// Service is the PostgreSQL-backed Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the schema.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.Comment{},
		&models.TimelineEntry{},
	); err != nil {
		return goerr.Wrap(err, "failed to migrate schema")
	}
	// Usernames are unique regardless of case, matching GetUserByUsername.
	if err := s.DB.WithContext(ctx).Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (lower(username))",
	).Error; err != nil {
		return goerr.Wrap(err, "failed to create username index")
	}
	return nil
}

func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint, entry *models.TimelineEntry) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return goerr.Wrap(err, "failed to create complaint")
		}
		if entry != nil {
			entry.ComplaintID = c.ID
			if err := tx.Create(entry).Error; err != nil {
				return goerr.Wrap(err, "failed to create timeline entry", goerr.V("complaint_id", c.ID))
			}
		}
		return nil
	})
}

func (s *Service) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get complaint", goerr.V("complaint_id", id))
	}
	return &c, nil
}

// UpdateComplaint performs a conditional write on the version column.
func (s *Service) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int, entries ...*models.TimelineEntry) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c.Version = expectedVersion + 1
		result := tx.Model(c).
			Where("version = ?", expectedVersion).
			Select("*").
			Omit("id", "created_at").
			Updates(c)
		if result.Error != nil {
			c.Version = expectedVersion
			return goerr.Wrap(result.Error, "failed to update complaint", goerr.V("complaint_id", c.ID))
		}
		if result.RowsAffected == 0 {
			c.Version = expectedVersion
			var count int64
			if err := tx.Model(&models.Complaint{}).Where("id = ?", c.ID).Count(&count).Error; err != nil {
				return goerr.Wrap(err, "failed to check complaint", goerr.V("complaint_id", c.ID))
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}

		for _, e := range entries {
			e.ComplaintID = c.ID
			if err := tx.Create(e).Error; err != nil {
				return goerr.Wrap(err, "failed to create timeline entry", goerr.V("complaint_id", c.ID))
			}
		}
		return nil
	})
}

func (s *Service) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	q := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Urgency != "" {
		q = q.Where("urgency = ?", f.Urgency)
	}
	if f.SubmitterID != nil {
		q = q.Where("submitter_id = ? AND anonymous = ?", *f.SubmitterID, false)
	}
	if f.AssignedOfficerID != nil {
		q = q.Where("assigned_officer_id = ?", *f.AssignedOfficerID)
	}
	if f.Unassigned {
		q = q.Where("assigned_officer_id IS NULL")
	}
	if f.Escalated != nil {
		if *f.Escalated {
			q = q.Where("escalated_at IS NOT NULL")
		} else {
			q = q.Where("escalated_at IS NULL")
		}
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}
	if f.DeadlineBefore != nil {
		q = q.Where("deadline IS NOT NULL AND deadline < ?", *f.DeadlineBefore)
	}
	if f.CreatedBefore != nil {
		q = q.Where("created_at < ?", *f.CreatedBefore)
	}

	var out []models.Complaint
	if err := q.Order("id desc").Find(&out).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list complaints")
	}
	return out, nil
}

func (s *Service) FindComplaintByAttachment(ctx context.Context, path string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("attachment_path = ?", path).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find complaint by attachment", goerr.V("path", path))
	}
	return &c, nil
}

func (s *Service) AddComment(ctx context.Context, comment *models.Comment, entry *models.TimelineEntry) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Complaint{}).Where("id = ?", comment.ComplaintID).Count(&count).Error; err != nil {
			return goerr.Wrap(err, "failed to check complaint", goerr.V("complaint_id", comment.ComplaintID))
		}
		if count == 0 {
			return ErrNotFound
		}
		if err := tx.Create(comment).Error; err != nil {
			return goerr.Wrap(err, "failed to save comment", goerr.V("complaint_id", comment.ComplaintID))
		}
		if entry != nil {
			entry.ComplaintID = comment.ComplaintID
			if err := tx.Create(entry).Error; err != nil {
				return goerr.Wrap(err, "failed to create timeline entry", goerr.V("complaint_id", comment.ComplaintID))
			}
		}
		return nil
	})
}

func (s *Service) ListComments(ctx context.Context, complaintID uint, includeInternal bool) ([]models.Comment, error) {
	q := s.DB.WithContext(ctx).Where("complaint_id = ?", complaintID)
	if !includeInternal {
		q = q.Where("internal = ?", false)
	}
	var out []models.Comment
	if err := q.Order("created_at asc, id asc").Find(&out).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list comments", goerr.V("complaint_id", complaintID))
	}
	return out, nil
}

func (s *Service) ListTimeline(ctx context.Context, complaintID uint, includeInternal bool) ([]models.TimelineEntry, error) {
	q := s.DB.WithContext(ctx).Where("complaint_id = ?", complaintID)
	if !includeInternal {
		q = q.Where("internal = ?", false)
	}
	var out []models.TimelineEntry
	if err := q.Order("created_at asc, id asc").Find(&out).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list timeline", goerr.V("complaint_id", complaintID))
	}
	return out, nil
}

func (s *Service) CreateUser(ctx context.Context, u *models.User) error {
	err := s.DB.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	if err != nil {
		return goerr.Wrap(err, "failed to create user", goerr.V("username", u.Username))
	}
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("user_id", id))
	}
	return &u, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("lower(username) = ?", strings.ToLower(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("username", username))
	}
	return &u, nil
}

// ListUsersByRole uses the PostgreSQL array overlap operator.
func (s *Service) ListUsersByRole(ctx context.Context, roles ...string) ([]models.User, error) {
	var out []models.User
	err := s.DB.WithContext(ctx).
		Where("roles && ?", pq.Array(roles)).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users by role", goerr.V("roles", roles))
	}
	return out, nil
}

func (s *Service) UpdateUserRoles(ctx context.Context, id uint, roles []string) error {
	result := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("roles", pq.StringArray(roles))
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to update user roles", goerr.V("user_id", id))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
