package handler

import (
	"time"

	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/models"
)

const anonymousName = "Anonymous"

type officerDTO struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type commentDTO struct {
	ID         uint      `json:"id"`
	AuthorID   *uint     `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName"`
	Text       string    `json:"text"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"createdAt"`
}

type complaintDTO struct {
	ID              uint         `json:"id"`
	Category        string       `json:"category"`
	Description     string       `json:"description"`
	Urgency         string       `json:"urgency"`
	Status          string       `json:"status"`
	Anonymous       bool         `json:"anonymous"`
	SubmitterID     *uint        `json:"submitterId,omitempty"`
	Username        string       `json:"username"`
	AttachmentPath  string       `json:"attachmentPath,omitempty"`
	AssignedOfficer *officerDTO  `json:"assignedOfficer,omitempty"`
	Assigned        bool         `json:"assigned"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
	Escalated       bool         `json:"escalated"`
	EscalatedAt     *time.Time   `json:"escalatedAt,omitempty"`
	Overdue         bool         `json:"overdue"`
	ResolvedAt      *time.Time   `json:"resolvedAt,omitempty"`
	Version         int          `json:"version"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	Comments        []commentDTO `json:"comments"`
}

// publicComplaintDTO is the board projection: no identity, attachment or
// comments.
type publicComplaintDTO struct {
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

type timelineDTO struct {
	ID        uint   `json:"id"`
	Action    string `json:"action"`
	Status    string `json:"status,omitempty"`
	Comment   string `json:"comment,omitempty"`
	Internal  bool   `json:"internal"`
	Actor     string `json:"actor"`
	ActorID   *uint  `json:"actorId,omitempty"`
	Timestamp string `json:"timestamp"`
}

type userDTO struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
}

func toComplaintDTO(d complaint.Details, now time.Time) complaintDTO {
	c := d.Complaint
	out := complaintDTO{
		ID:             c.ID,
		Category:       c.Category,
		Description:    c.Description,
		Urgency:        c.Urgency,
		Status:         c.Status,
		Anonymous:      c.Anonymous,
		Username:       anonymousName,
		AttachmentPath: c.AttachmentPath,
		Assigned:       c.IsAssigned(),
		Deadline:       c.Deadline,
		Escalated:      c.IsEscalated(),
		EscalatedAt:    c.EscalatedAt,
		Overdue:        c.IsOverdue(now),
		ResolvedAt:     c.ResolvedAt,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Comments:       make([]commentDTO, 0, len(d.Comments)),
	}
	if !c.Anonymous {
		out.SubmitterID = c.SubmitterID
		if c.SubmitterName != "" {
			out.Username = c.SubmitterName
		}
	}
	if d.Officer != nil {
		out.AssignedOfficer = &officerDTO{ID: d.Officer.ID, FullName: d.Officer.DisplayName(), Email: d.Officer.Email}
	}
	for _, cm := range d.Comments {
		out.Comments = append(out.Comments, toCommentDTO(cm))
	}
	return out
}

func toComplaintDTOs(details []complaint.Details, now time.Time) []complaintDTO {
	out := make([]complaintDTO, 0, len(details))
	for _, d := range details {
		out = append(out, toComplaintDTO(d, now))
	}
	return out
}

func toPublicDTOs(cs []models.Complaint) []publicComplaintDTO {
	out := make([]publicComplaintDTO, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		out = append(out, publicComplaintDTO{
			ID:          c.ID,
			Category:    c.Category,
			Description: c.Description,
			Urgency:     c.Urgency,
			Status:      c.Status,
			Assigned:    c.IsAssigned(),
			Escalated:   c.IsEscalated(),
			ResolvedAt:  c.ResolvedAt,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}

func toCommentDTO(c models.Comment) commentDTO {
	return commentDTO{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Text:       c.Text,
		Internal:   c.Internal,
		CreatedAt:  c.CreatedAt,
	}
}

func toCommentDTOs(cs []models.Comment) []commentDTO {
	out := make([]commentDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCommentDTO(c))
	}
	return out
}

func toTimelineDTOs(entries []models.TimelineEntry) []timelineDTO {
	out := make([]timelineDTO, 0, len(entries))
	for _, e := range entries {
		actor := e.ActorName
		if actor == "" {
			actor = "System"
		}
		out = append(out, timelineDTO{
			ID:        e.ID,
			Action:    e.Action,
			Status:    e.Status,
			Comment:   e.Comment,
			Internal:  e.Internal,
			Actor:     actor,
			ActorID:   e.ActorID,
			Timestamp: e.CreatedAt.UTC().Format(config.TimelineTimeFormat),
		})
	}
	return out
}

func toUserDTOs(users []models.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, userDTO{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			FullName: u.FullName,
			Roles:    []string(u.Roles),
		})
	}
	return out
}
