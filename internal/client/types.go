package client

import "time"

// Officer is the assignee summary embedded in a complaint.
type Officer struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type Comment struct {
	ID         uint      `json:"id"`
	AuthorID   *uint     `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Complaint is a complaint as the API renders it to an authorised reader.
type Complaint struct {
	ID              uint       `json:"id"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Urgency         string     `json:"urgency"`
	Status          string     `json:"status"`
	Anonymous       bool       `json:"anonymous"`
	SubmitterID     *uint      `json:"submitterId,omitempty"`
	Username        string     `json:"username"`
	AttachmentPath  string     `json:"attachmentPath,omitempty"`
	AssignedOfficer *Officer   `json:"assignedOfficer,omitempty"`
	Assigned        bool       `json:"assigned"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Escalated       bool       `json:"escalated"`
	EscalatedAt     *time.Time `json:"escalatedAt,omitempty"`
	Overdue         bool       `json:"overdue"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	Version         int        `json:"version"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Comments        []Comment  `json:"comments"`
}

// PublicComplaint is the redacted board entry.
type PublicComplaint struct {
	ID          uint       `json:"id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Urgency     string     `json:"urgency"`
	Status      string     `json:"status"`
	Assigned    bool       `json:"assigned"`
	Escalated   bool       `json:"escalated"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TimelineEntry carries its timestamp pre-formatted by the server.
type TimelineEntry struct {
	ID        uint   `json:"id"`
	Action    string `json:"action"`
	Status    string `json:"status,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Internal  bool   `json:"internal"`
	Actor     string `json:"actor"`
	ActorID   *uint  `json:"actorId,omitempty"`
	Timestamp string `json:"timestamp"`
}

type User struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// Session is the result of a login.
type Session struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

// EscalationTrigger is the response of an asynchronous trigger.
type EscalationTrigger struct {
	Queued bool `json:"queued"`
}
