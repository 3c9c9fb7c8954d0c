package handler

import (
	"strings"
	"time"

	"resolveit/backend/internal/apperr"
)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

const dateOnly = "2006-01-02"

// parseDeadline accepts RFC 3339, an HTML datetime-local value or a bare
// date. Values without a zone are read as UTC; a bare date means the end
// of that day. An empty string yields nil.
func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	if d, err := time.Parse(dateOnly, raw); err == nil {
		t := d.Add(24*time.Hour - time.Second).UTC()
		return &t, nil
	}
	return nil, apperr.NewValidationError("deadline", "unrecognised date "+raw)
}
