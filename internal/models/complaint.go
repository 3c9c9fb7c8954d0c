package models

import "time"

// Complaint is the tracked grievance and its lifecycle state.
// Status values come from the configured workflow, never from literals.
type Complaint struct {
	// ID is assigned by the store at creation and never reused.
	ID uint `gorm:"primaryKey" json:"id"`
	// Category is one of the workflow's categories, stored upper-case.
	Category string `gorm:"type:text;not null;index" json:"category"`
	// Description is the complainant's free text.
	Description string `gorm:"type:text;not null" json:"description"`
	// Urgency is LOW, MEDIUM or HIGH.
	Urgency string `gorm:"type:text;not null;index" json:"urgency"`
	// Status is the current workflow status.
	Status string `gorm:"type:text;not null;index" json:"status"`

	// Anonymous complaints never carry a submitter reference.
	Anonymous     bool   `gorm:"not null;default:false" json:"anonymous"`
	SubmitterID   *uint  `gorm:"index" json:"submitterId,omitempty"`
	SubmitterName string `gorm:"type:text" json:"submitterName,omitempty"`
	// AttachmentPath is the stored file name under the upload directory.
	AttachmentPath string `gorm:"type:text;index" json:"attachmentPath,omitempty"`

	// AssignedOfficerID and Deadline are set and cleared together.
	AssignedOfficerID *uint      `gorm:"index" json:"assignedOfficerId,omitempty"`
	Deadline          *time.Time `gorm:"index" json:"deadline,omitempty"`
	// PreAssignStatus is restored by Unassign.
	PreAssignStatus string `gorm:"type:text" json:"-"`

	// EscalatedAt is non-nil while the complaint is escalated.
	EscalatedAt *time.Time `gorm:"index" json:"escalatedAt,omitempty"`
	// PreEscalationStatus is restored by de-escalation.
	PreEscalationStatus string `gorm:"type:text" json:"-"`
	// DeEscalatedAt is when an admin last cleared the escalation.
	DeEscalatedAt *time.Time `json:"deEscalatedAt,omitempty"`

	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`

	// Version guards optimistic concurrency; every mutation bumps it.
	Version int `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"autoCreateTime:false;not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;not null" json:"updatedAt"`
}

// IsAssigned reports whether an officer currently owns the complaint.
func (c *Complaint) IsAssigned() bool {
	return c.AssignedOfficerID != nil
}

// IsEscalated reports whether the complaint is currently escalated.
func (c *Complaint) IsEscalated() bool {
	return c.EscalatedAt != nil
}

// IsOverdue reports whether the deadline lapsed before now.
func (c *Complaint) IsOverdue(now time.Time) bool {
	return c.Deadline != nil && c.Deadline.Before(now)
}

// DeEscalatedSince reports whether an admin cleared the escalation at or
// after t.
func (c *Complaint) DeEscalatedSince(t time.Time) bool {
	return c.DeEscalatedAt != nil && !c.DeEscalatedAt.Before(t)
}

// IsSubmittedBy reports whether userID filed this (non-anonymous) complaint.
func (c *Complaint) IsSubmittedBy(userID uint) bool {
	return !c.Anonymous && c.SubmitterID != nil && *c.SubmitterID == userID
}

// IsAssignedTo reports whether userID is the assigned officer.
func (c *Complaint) IsAssignedTo(userID uint) bool {
	return c.AssignedOfficerID != nil && *c.AssignedOfficerID == userID
}

// Clone returns a deep copy, including pointer fields.
func (c *Complaint) Clone() *Complaint {
	cp := *c
	cp.SubmitterID = cloneUint(c.SubmitterID)
	cp.AssignedOfficerID = cloneUint(c.AssignedOfficerID)
	cp.Deadline = cloneTime(c.Deadline)
	cp.EscalatedAt = cloneTime(c.EscalatedAt)
	cp.DeEscalatedAt = cloneTime(c.DeEscalatedAt)
	cp.ResolvedAt = cloneTime(c.ResolvedAt)
	return &cp
}

func cloneUint(v *uint) *uint {
	if v == nil {
		return nil
	}
	u := *v
	return &u
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
