package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"resolveit/backend/internal/models"
)

// MemoryStore is an in-process Storage for development and tests. All
// records are copied on the way in and out.
type MemoryStore struct {
	mu sync.RWMutex

	complaints map[uint]*models.Complaint
	comments   []models.Comment
	timeline   []models.TimelineEntry
	users      map[uint]*models.User

	nextComplaintID uint
	nextCommentID   uint
	nextEntryID     uint
	nextUserID      uint
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints:      make(map[uint]*models.Complaint),
		users:           make(map[uint]*models.User),
		nextComplaintID: 1,
		nextCommentID:   1,
		nextEntryID:     1,
		nextUserID:      1,
	}
}

var _ Storage = (*MemoryStore)(nil)

func (m *MemoryStore) CreateComplaint(ctx context.Context, c *models.Complaint, entry *models.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c.ID = m.nextComplaintID
	m.nextComplaintID++
	if c.Version == 0 {
		c.Version = 1
	}
	m.complaints[c.ID] = c.Clone()

	if entry != nil {
		entry.ComplaintID = c.ID
		m.appendEntryLocked(entry)
	}
	return nil
}

func (m *MemoryStore) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryStore) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int, entries ...*models.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.complaints[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}

	c.Version = expectedVersion + 1
	c.CreatedAt = stored.CreatedAt
	m.complaints[c.ID] = c.Clone()

	for _, e := range entries {
		e.ComplaintID = c.ID
		m.appendEntryLocked(e)
	}
	return nil
}

func (m *MemoryStore) appendEntryLocked(e *models.TimelineEntry) {
	e.ID = m.nextEntryID
	m.nextEntryID++
	m.timeline = append(m.timeline, *e)
}

func (m *MemoryStore) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		if matches(c, f) {
			out = append(out, *c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Complaint) int {
		return int(b.ID) - int(a.ID)
	})
	return out, nil
}

func matches(c *models.Complaint, f ComplaintFilter) bool {
	switch {
	case f.Status != "" && c.Status != f.Status:
		return false
	case f.Category != "" && c.Category != f.Category:
		return false
	case f.Urgency != "" && c.Urgency != f.Urgency:
		return false
	case f.SubmitterID != nil && !c.IsSubmittedBy(*f.SubmitterID):
		return false
	case f.AssignedOfficerID != nil && !c.IsAssignedTo(*f.AssignedOfficerID):
		return false
	case f.Unassigned && c.IsAssigned():
		return false
	case f.Escalated != nil && *f.Escalated != c.IsEscalated():
		return false
	case slices.Contains(f.ExcludeStatuses, c.Status):
		return false
	case f.DeadlineBefore != nil && (c.Deadline == nil || !c.Deadline.Before(*f.DeadlineBefore)):
		return false
	case f.CreatedBefore != nil && !c.CreatedAt.Before(*f.CreatedBefore):
		return false
	}
	return true
}

func (m *MemoryStore) FindComplaintByAttachment(ctx context.Context, path string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.complaints {
		if c.AttachmentPath != "" && c.AttachmentPath == path {
			return c.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) AddComment(ctx context.Context, comment *models.Comment, entry *models.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.complaints[comment.ComplaintID]; !ok {
		return ErrNotFound
	}
	comment.ID = m.nextCommentID
	m.nextCommentID++
	m.comments = append(m.comments, *comment)

	if entry != nil {
		entry.ComplaintID = comment.ComplaintID
		m.appendEntryLocked(entry)
	}
	return nil
}

func (m *MemoryStore) ListComments(ctx context.Context, complaintID uint, includeInternal bool) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Comment
	for _, cm := range m.comments {
		if cm.ComplaintID != complaintID || (cm.Internal && !includeInternal) {
			continue
		}
		cp := cm
		if cm.AuthorID != nil {
			id := *cm.AuthorID
			cp.AuthorID = &id
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *MemoryStore) ListTimeline(ctx context.Context, complaintID uint, includeInternal bool) ([]models.TimelineEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.TimelineEntry
	for _, e := range m.timeline {
		if e.ComplaintID != complaintID || (e.Internal && !includeInternal) {
			continue
		}
		cp := e
		if e.ActorID != nil {
			id := *e.ActorID
			cp.ActorID = &id
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.ID = m.nextUserID
	m.nextUserID++
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *MemoryStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListUsersByRole(ctx context.Context, roles ...string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.User
	for _, u := range m.users {
		for _, r := range roles {
			if u.HasRole(r) {
				out = append(out, *cloneUser(u))
				break
			}
		}
	}
	slices.SortFunc(out, func(a, b models.User) int {
		return int(a.ID) - int(b.ID)
	})
	return out, nil
}

func (m *MemoryStore) UpdateUserRoles(ctx context.Context, id uint, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Roles = slices.Clone(roles)
	return nil
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Roles = slices.Clone(u.Roles)
	return &cp
}
