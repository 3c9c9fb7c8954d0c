package config

import "time"

const (
	// Submission
	MaxDescriptionLength = 5000
	MaxCommentLength     = 2000

	// Attachments
	MaxAttachmentBytes = 10 << 20
	DefaultUploadDir   = "uploads"

	// Escalation
	DefaultEscalationInterval = 15 * time.Minute
	DefaultEscalationGrace    = 0 * time.Minute
	DefaultUnresolvedAfter    = 0 * time.Hour
	EscalationRunTimeout      = 2 * time.Minute

	// Auth
	DefaultTokenTTL = 24 * time.Hour
	TokenIssuer     = "resolveit"

	// Timeline rendering, as the dashboard expects it
	TimelineTimeFormat = "2006-01-02 15:04:05"
)

const (
	UrgencyLow    = "LOW"
	UrgencyMedium = "MEDIUM"
	UrgencyHigh   = "HIGH"
)

// Urgencies lists the accepted urgency levels, lowest first.
var Urgencies = []string{UrgencyLow, UrgencyMedium, UrgencyHigh}

// UrgencyWeights orders escalation candidates; higher goes first.
var UrgencyWeights = map[string]int{
	UrgencyLow:    5,
	UrgencyMedium: 50,
	UrgencyHigh:   250,
}

// DefaultCategories is used when a workflow file does not list its own.
var DefaultCategories = []string{
	"ACADEMIC",
	"INFRASTRUCTURE",
	"ADMINISTRATIVE",
	"HARASSMENT",
	"TECHNICAL",
	"BILLING",
	"OTHER",
}

// AttachmentKinds maps allowed file extensions to the media family the
// content must sniff as.
var AttachmentKinds = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".bmp":  "image",
	".webp": "image",
	".svg":  "image",
	".mp4":  "video",
	".webm": "video",
	".ogg":  "video",
	".mov":  "video",
	".avi":  "video",
	".mkv":  "video",
	".pdf":  "document",
	".doc":  "document",
	".docx": "document",
	".txt":  "document",
}
