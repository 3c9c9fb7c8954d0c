package models

import "time"

// Event types published after a successful mutation.
const (
	EventSubmitted     = "complaint.submitted"
	EventAssigned      = "complaint.assigned"
	EventUnassigned    = "complaint.unassigned"
	EventDeadline      = "complaint.deadline_updated"
	EventStatusChanged = "complaint.status_changed"
	EventEscalated     = "complaint.escalated"
	EventDeEscalated   = "complaint.de_escalated"
	EventResolved      = "complaint.resolved"
	EventCommented     = "complaint.commented"
)

// ComplaintEvent is the message fanned out to websocket clients, other
// replicas and notifiers.
type ComplaintEvent struct {
	Type        string `json:"type"`
	ComplaintID uint   `json:"complaintId"`
	Status      string `json:"status"`
	Category    string `json:"category,omitempty"`
	Urgency     string `json:"urgency,omitempty"`
	// Actor is the display name; "System" for automatic escalation.
	Actor   string `json:"actor"`
	ActorID *uint  `json:"actorId,omitempty"`
	Comment string `json:"comment,omitempty"`
	// SubmitterID and AssignedOfficerID route the event to its audience.
	SubmitterID       *uint `json:"submitterId,omitempty"`
	AssignedOfficerID *uint `json:"assignedOfficerId,omitempty"`
	// Internal events are only delivered to staff.
	Internal bool      `json:"internal"`
	At       time.Time `json:"at"`
}
