package models

import "time"

// Timeline actions.
const (
	ActionSubmitted       = "submitted"
	ActionAssigned        = "assigned"
	ActionUnassigned      = "unassigned"
	ActionDeadlineUpdated = "deadline_updated"
	ActionStatusChanged   = "status_changed"
	ActionEscalated       = "escalated"
	ActionDeEscalated     = "de_escalated"
	ActionCompleted       = "completed"
	ActionResolved        = "resolved"
	ActionComment         = "comment"
	ActionNote            = "note"
)

// TimelineEntry is one audit record of a complaint's history.
type TimelineEntry struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	ComplaintID uint `gorm:"not null;index:idx_timeline_complaint" json:"complaintId"`
	// Action is one of the Action* constants.
	Action string `gorm:"type:text;not null" json:"action"`
	// Status is the complaint status after the action.
	Status  string `gorm:"type:text;not null" json:"status"`
	Comment string `gorm:"type:text" json:"comment"`
	// Internal entries are hidden from the submitter.
	Internal bool `gorm:"not null;default:false" json:"internal"`
	// ActorID is nil for the system actor and anonymous submitters.
	ActorID   *uint     `json:"actorId,omitempty"`
	ActorName string    `gorm:"type:text" json:"actorName"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null;index:idx_timeline_complaint" json:"createdAt"`
}
