// Package analysis ranks complaints and aggregates them for the dashboard.
package analysis

import (
	"cmp"
	"time"

	"resolveit/backend/internal/config"
	"resolveit/backend/internal/models"
)

// GetWeight returns the escalation weight for an urgency level.
// It returns 0 if the urgency is not recognized.
func GetWeight(urgency string) int {
	return config.UrgencyWeights[urgency]
}

// ComparePriority orders complaints most pressing first: higher urgency
// weight, then earlier deadline, then older creation, then lower id.
func ComparePriority(a, b *models.Complaint) int {
	if c := cmp.Compare(GetWeight(b.Urgency), GetWeight(a.Urgency)); c != 0 {
		return c
	}
	if c := cmp.Compare(referenceTime(a).UnixNano(), referenceTime(b).UnixNano()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func referenceTime(c *models.Complaint) time.Time {
	if c.Deadline != nil {
		return *c.Deadline
	}
	return c.CreatedAt
}

// Summary is the aggregate the admin dashboard charts.
type Summary struct {
	Total      int            `json:"total"`
	Open       int            `json:"open"`
	Closed     int            `json:"closed"`
	Escalated  int            `json:"escalated"`
	Overdue    int            `json:"overdue"`
	Unassigned int            `json:"unassigned"`
	Anonymous  int            `json:"anonymous"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
	ByUrgency  map[string]int `json:"byUrgency"`
	// AverageResolutionHours covers complaints with a resolvedAt.
	AverageResolutionHours float64 `json:"averageResolutionHours"`
}

// Summarize aggregates complaints against the workflow's terminal set.
// Every configured status, category and urgency appears in the maps, even
// with a zero count.
func Summarize(complaints []models.Complaint, wf *config.Workflow, now time.Time) Summary {
	s := Summary{
		Total:      len(complaints),
		ByStatus:   make(map[string]int, len(wf.Statuses)),
		ByCategory: make(map[string]int, len(wf.Categories)),
		ByUrgency:  make(map[string]int, len(config.Urgencies)),
	}
	for _, st := range wf.Statuses {
		s.ByStatus[st] = 0
	}
	for _, c := range wf.Categories {
		s.ByCategory[c] = 0
	}
	for _, u := range config.Urgencies {
		s.ByUrgency[u] = 0
	}

	var resolvedCount int
	var resolvedHours float64
	for i := range complaints {
		c := &complaints[i]
		s.ByStatus[c.Status]++
		s.ByCategory[c.Category]++
		s.ByUrgency[c.Urgency]++
		if c.Anonymous {
			s.Anonymous++
		}
		if c.ResolvedAt != nil {
			resolvedCount++
			resolvedHours += c.ResolvedAt.Sub(c.CreatedAt).Hours()
		}

		if wf.IsTerminal(c.Status) {
			s.Closed++
			continue
		}
		s.Open++
		if c.IsEscalated() {
			s.Escalated++
		}
		if c.IsOverdue(now) {
			s.Overdue++
		}
		if !c.IsAssigned() {
			s.Unassigned++
		}
	}
	if resolvedCount > 0 {
		s.AverageResolutionHours = resolvedHours / float64(resolvedCount)
	}
	return s
}
