// Package escalation escalates complaints whose deadline lapsed without
// resolution. It runs the same Escalate transition a human would, as the
// system actor.
package escalation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/analysis"
	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"
)

// Config controls which complaints are considered overdue.
type Config struct {
	Enabled  bool
	Interval time.Duration
	// Grace is added to the deadline before a complaint counts as lapsed.
	Grace time.Duration
	// UnresolvedAfter also escalates unassigned complaints older than
	// this. Zero disables the rule.
	UnresolvedAfter time.Duration
}

// DefaultConfig is used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Interval:        config.DefaultEscalationInterval,
		Grace:           config.DefaultEscalationGrace,
		UnresolvedAfter: config.DefaultUnresolvedAfter,
	}
}

// Escalator is the workflow operation the policy drives.
type Escalator interface {
	Escalate(ctx context.Context, actor auth.Actor, id uint, reason string) (*models.Complaint, error)
}

// Candidate is a complaint the next run would escalate.
type Candidate struct {
	Complaint models.Complaint `json:"complaint"`
	Reason    string           `json:"reason"`
	// OverdueBy is how long ago the deadline (plus grace) or age limit lapsed.
	OverdueBy time.Duration `json:"overdueBy"`
}

// RunResult summarises one pass.
type RunResult struct {
	Trigger      string    `json:"trigger"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Considered   int       `json:"considered"`
	Escalated    int       `json:"escalated"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	EscalatedIDs []uint    `json:"escalatedIds"`
}

// Service finds and escalates overdue complaints.
type Service struct {
	Storage   storage.Storage
	Workflow  *config.Workflow
	Escalator Escalator
	Config    Config
	Stats     StatsStore
	Now       func() time.Time

	// runMu serialises passes so a manual trigger never overlaps a tick.
	runMu sync.Mutex
}

// NewService creates a new escalation service.
func NewService(s storage.Storage, wf *config.Workflow, esc Escalator, cfg Config) *Service {
	return &Service{
		Storage:   s,
		Workflow:  wf,
		Escalator: esc,
		Config:    cfg,
		Stats:     NewMemoryStatsStore(),
		Now:       time.Now,
	}
}

// Candidates lists open, non-escalated complaints that are overdue, most
// pressing first. Complaints de-escalated after their deadline lapsed are
// left alone until the deadline moves.
func (s *Service) Candidates(ctx context.Context) ([]Candidate, error) {
	now := s.Now().UTC()
	notEscalated := false

	cutoff := now.Add(-s.Config.Grace)
	overdue, err := s.Storage.ListComplaints(ctx, storage.ComplaintFilter{
		Escalated:       &notEscalated,
		ExcludeStatuses: s.Workflow.Terminal,
		DeadlineBefore:  &cutoff,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list overdue complaints")
	}

	seen := make(map[uint]bool, len(overdue))
	out := make([]Candidate, 0, len(overdue))
	for _, c := range overdue {
		seen[c.ID] = true
		// An admin cleared the escalation after this deadline lapsed; a new
		// deadline re-arms it.
		if c.DeEscalatedSince(*c.Deadline) {
			continue
		}
		out = append(out, Candidate{
			Complaint: c,
			Reason:    "Automatically escalated: deadline passed",
			OverdueBy: cutoff.Sub(*c.Deadline),
		})
	}

	if s.Config.UnresolvedAfter > 0 {
		created := now.Add(-s.Config.UnresolvedAfter)
		stale, err := s.Storage.ListComplaints(ctx, storage.ComplaintFilter{
			Escalated:       &notEscalated,
			ExcludeStatuses: s.Workflow.Terminal,
			Unassigned:      true,
			CreatedBefore:   &created,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list stale complaints")
		}
		for _, c := range stale {
			if seen[c.ID] || c.DeEscalatedAt != nil {
				continue
			}
			out = append(out, Candidate{
				Complaint: c,
				Reason:    fmt.Sprintf("Automatically escalated: unassigned for more than %s", s.Config.UnresolvedAfter),
				OverdueBy: created.Sub(c.CreatedAt),
			})
		}
	}

	slices.SortFunc(out, func(a, b Candidate) int {
		return analysis.ComparePriority(&a.Complaint, &b.Complaint)
	})
	return out, nil
}

// RunOnce escalates every current candidate. Complaints that changed
// under it (a conflict) are counted as skipped; other failures are logged
// and counted, and do not stop the pass.
func (s *Service) RunOnce(ctx context.Context, trigger string) (*RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	res := &RunResult{Trigger: trigger, StartedAt: s.Now().UTC(), EscalatedIDs: []uint{}}
	candidates, err := s.Candidates(ctx)
	if err != nil {
		res.FinishedAt = s.Now().UTC()
		s.record(ctx, res, err)
		return nil, err
	}
	res.Considered = len(candidates)

	for _, cand := range candidates {
		id := cand.Complaint.ID
		_, err := s.Escalator.Escalate(ctx, auth.SystemActor(), id, cand.Reason)
		var conflict *apperr.ConflictError
		switch {
		case err == nil:
			res.Escalated++
			res.EscalatedIDs = append(res.EscalatedIDs, id)
		case errors.As(err, &conflict):
			res.Skipped++
			logging.Default().Debug("escalation skipped", "complaint_id", id, "reason", err.Error())
		default:
			res.Failed++
			logging.Default().Error("escalation failed",
				append([]any{"complaint_id", id}, logging.ErrAttrs(err)...)...)
		}
		if ctx.Err() != nil {
			break
		}
	}

	res.FinishedAt = s.Now().UTC()
	s.record(ctx, res, nil)
	logging.Default().Info("escalation pass finished",
		"trigger", trigger,
		"considered", res.Considered,
		"escalated", res.Escalated,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, nil
}

func (s *Service) record(ctx context.Context, res *RunResult, runErr error) {
	if err := s.Stats.Record(ctx, *res, runErr); err != nil {
		logging.Default().Warn("failed to record escalation stats", logging.ErrAttrs(err)...)
	}
}

// CurrentStats returns the accumulated statistics.
func (s *Service) CurrentStats(ctx context.Context) (Stats, error) {
	return s.Stats.Load(ctx)
}
