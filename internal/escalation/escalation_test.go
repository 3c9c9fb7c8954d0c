package escalation_test

import (
	"context"
	"testing"
	"time"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/complaint"
	"resolveit/backend/internal/config"
	"resolveit/backend/internal/escalation"
	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type env struct {
	store      *storage.MemoryStore
	complaints *complaint.Service
	svc        *escalation.Service
	now        time.Time

	admin   auth.Actor
	officer auth.Actor
	user    auth.Actor
}

func newEnv(t *testing.T, wf *config.Workflow, cfg escalation.Config) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{store: storage.NewMemoryStore(), now: base}

	mk := func(name string, roles ...string) auth.Actor {
		u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Roles: pq.StringArray(roles)}
		require.NoError(t, e.store.CreateUser(ctx, u))
		return auth.ActorFromUser(u)
	}
	e.admin = mk("admin", "ADMIN")
	e.officer = mk("officer", "OFFICER")
	e.user = mk("user", "USER")

	clock := func() time.Time { return e.now }
	e.complaints = complaint.NewService(e.store, wf)
	e.complaints.Now = clock
	e.svc = escalation.NewService(e.store, wf, e.complaints, cfg)
	e.svc.Now = clock
	return e
}

func (e *env) submit(t *testing.T, urgency string) *models.Complaint {
	t.Helper()
	c, err := e.complaints.Submit(context.Background(), e.user, complaint.SubmitInput{
		Category: "TECHNICAL", Description: "Broken projector", Urgency: urgency,
	})
	require.NoError(t, err)
	return c
}

func (e *env) assign(t *testing.T, id uint, deadline time.Time) {
	t.Helper()
	_, err := e.complaints.Assign(context.Background(), e.admin, id, complaint.AssignInput{
		OfficerID: e.officer.ID, Deadline: &deadline,
	})
	require.NoError(t, err)
}

func (e *env) get(t *testing.T, id uint) *models.Complaint {
	t.Helper()
	c, err := e.store.GetComplaint(context.Background(), id)
	require.NoError(t, err)
	return c
}

func TestCandidates(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())
	ctx := context.Background()

	low := e.submit(t, "LOW")
	high := e.submit(t, "HIGH")
	later := e.submit(t, "HIGH")
	done := e.submit(t, "HIGH")
	flagged := e.submit(t, "MEDIUM")
	e.submit(t, "HIGH") // unassigned, no deadline

	e.assign(t, low.ID, base.Add(time.Hour))
	e.assign(t, high.ID, base.Add(2*time.Hour))
	e.assign(t, later.ID, base.Add(48*time.Hour))
	e.assign(t, done.ID, base.Add(time.Hour))
	e.assign(t, flagged.ID, base.Add(time.Hour))

	_, err := e.complaints.MarkResolved(ctx, e.officer, done.ID)
	require.NoError(t, err)
	_, err = e.complaints.Escalate(ctx, e.officer, flagged.ID, "")
	require.NoError(t, err)

	e.now = base.Add(3 * time.Hour)
	got, err := e.svc.Candidates(ctx)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, high.ID, got[0].Complaint.ID, "higher urgency first")
	assert.Equal(t, low.ID, got[1].Complaint.ID)
	assert.Equal(t, 2*time.Hour, got[1].OverdueBy)
	assert.Contains(t, got[0].Reason, "deadline passed")
}

func TestCandidates_Grace(t *testing.T) {
	cfg := escalation.DefaultConfig()
	cfg.Grace = time.Hour
	e := newEnv(t, config.StandardWorkflow(), cfg)

	c := e.submit(t, "HIGH")
	e.assign(t, c.ID, base.Add(time.Hour))

	e.now = base.Add(90 * time.Minute)
	got, err := e.svc.Candidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "still within grace")

	e.now = base.Add(3 * time.Hour)
	got, err = e.svc.Candidates(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCandidates_UnresolvedAfter(t *testing.T) {
	cfg := escalation.DefaultConfig()
	cfg.UnresolvedAfter = 24 * time.Hour
	e := newEnv(t, config.StandardWorkflow(), cfg)

	stale := e.submit(t, "LOW")
	owned := e.submit(t, "LOW")
	e.assign(t, owned.ID, base.Add(72*time.Hour))

	e.now = base.Add(25 * time.Hour)
	got, err := e.svc.Candidates(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, stale.ID, got[0].Complaint.ID)
	assert.Contains(t, got[0].Reason, "unassigned")
}

func TestRunOnce(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())
	ctx := context.Background()

	a := e.submit(t, "HIGH")
	b := e.submit(t, "LOW")
	e.assign(t, a.ID, base.Add(time.Hour))
	e.assign(t, b.ID, base.Add(time.Hour))

	e.now = base.Add(2 * time.Hour)
	res, err := e.svc.RunOnce(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, "manual", res.Trigger)
	assert.Equal(t, 2, res.Considered)
	assert.Equal(t, 2, res.Escalated)
	assert.Equal(t, []uint{a.ID, b.ID}, res.EscalatedIDs)

	got := e.get(t, a.ID)
	assert.Equal(t, "ESCALATED", got.Status)
	require.NotNil(t, got.EscalatedAt)
	assert.Equal(t, e.now, *got.EscalatedAt)

	timeline, err := e.store.ListTimeline(ctx, a.ID, true)
	require.NoError(t, err)
	last := timeline[len(timeline)-1]
	assert.Equal(t, models.ActionEscalated, last.Action)
	assert.Nil(t, last.ActorID, "system escalations have no actor account")
	assert.Equal(t, "System", last.ActorName)

	// Nothing is left to do on the next pass.
	res, err = e.svc.RunOnce(ctx, "schedule")
	require.NoError(t, err)
	assert.Zero(t, res.Considered)

	st, err := e.svc.CurrentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(2), st.TotalEscalated)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "schedule", st.LastRun.Trigger)
}

func TestRunOnce_RespectsManualDeEscalation(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())
	ctx := context.Background()

	c := e.submit(t, "HIGH")
	e.assign(t, c.ID, base.Add(time.Hour))

	e.now = base.Add(2 * time.Hour)
	res, err := e.svc.RunOnce(ctx, "schedule")
	require.NoError(t, err)
	require.Equal(t, 1, res.Escalated)

	e.now = base.Add(3 * time.Hour)
	_, err = e.complaints.DeEscalate(ctx, e.admin, c.ID, "handled by phone")
	require.NoError(t, err)

	e.now = base.Add(4 * time.Hour)
	res, err = e.svc.RunOnce(ctx, "schedule")
	require.NoError(t, err)
	assert.Zero(t, res.Considered, "a cleared escalation stays cleared for the same deadline")
	assert.False(t, e.get(t, c.ID).IsEscalated())

	// Moving the deadline re-arms the policy.
	next := base.Add(5 * time.Hour)
	_, err = e.complaints.UpdateDeadline(ctx, e.admin, c.ID, &next, "")
	require.NoError(t, err)

	e.now = base.Add(6 * time.Hour)
	res, err = e.svc.RunOnce(ctx, "schedule")
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, res.EscalatedIDs)
}

func TestRunOnce_SimpleWorkflowFlagsOnly(t *testing.T) {
	e := newEnv(t, config.SimpleWorkflow(), escalation.DefaultConfig())

	c := e.submit(t, "MEDIUM")
	e.assign(t, c.ID, base.Add(time.Hour))

	e.now = base.Add(2 * time.Hour)
	_, err := e.svc.RunOnce(context.Background(), "manual")
	require.NoError(t, err)

	got := e.get(t, c.ID)
	assert.Equal(t, "IN_PROGRESS", got.Status)
	assert.True(t, got.IsEscalated())
}

type stubEscalator struct {
	errs  map[uint]error
	calls []uint
}

func (s *stubEscalator) Escalate(_ context.Context, actor auth.Actor, id uint, _ string) (*models.Complaint, error) {
	if actor.Role != auth.RoleSystem {
		panic("escalation must run as the system actor")
	}
	s.calls = append(s.calls, id)
	return nil, s.errs[id]
}

func TestRunOnce_ConflictsAreSkippedAndFailuresCounted(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())

	a := e.submit(t, "HIGH")
	b := e.submit(t, "MEDIUM")
	c := e.submit(t, "LOW")
	for _, x := range []*models.Complaint{a, b, c} {
		e.assign(t, x.ID, base.Add(time.Hour))
	}

	stub := &stubEscalator{errs: map[uint]error{
		a.ID: apperr.NewConflictError("modified concurrently"),
		b.ID: assert.AnError,
	}}
	e.svc.Escalator = stub

	e.now = base.Add(2 * time.Hour)
	res, err := e.svc.RunOnce(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, stub.calls, "a failure does not stop the pass")
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, []uint{c.ID}, res.EscalatedIDs)
}

func TestMemoryStatsStore_RecordsErrors(t *testing.T) {
	st := escalation.NewMemoryStatsStore()
	ctx := context.Background()

	require.NoError(t, st.Record(ctx, escalation.RunResult{Escalated: 3, FinishedAt: base}, nil))
	require.NoError(t, st.Record(ctx, escalation.RunResult{FinishedAt: base.Add(time.Minute)}, assert.AnError))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Runs)
	assert.Equal(t, int64(3), got.TotalEscalated)
	assert.Equal(t, assert.AnError.Error(), got.LastError)
	require.NotNil(t, got.LastErrorAt)
	assert.Equal(t, base.Add(time.Minute), *got.LastErrorAt)
}

func TestWorker(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())
	c := e.submit(t, "HIGH")
	e.assign(t, c.ID, base.Add(time.Hour))

	w := escalation.NewWorker(e.svc, time.Hour)
	assert.Equal(t, escalation.HealthDown, w.Health().Status, "not started")

	w.Start(context.Background())
	t.Cleanup(w.Stop)

	// The startup pass runs before the deadline lapses.
	require.Eventually(t, func() bool {
		st, _ := e.svc.CurrentStats(context.Background())
		return st.Runs >= 1
	}, time.Second, 10*time.Millisecond)
	assert.False(t, e.get(t, c.ID).IsEscalated())

	e.now = base.Add(2 * time.Hour)
	w.Trigger()
	require.Eventually(t, func() bool {
		c, err := e.store.GetComplaint(context.Background(), c.ID)
		return err == nil && c.IsEscalated()
	}, time.Second, 10*time.Millisecond)

	h := w.Health()
	assert.Equal(t, escalation.HealthUp, h.Status)
	assert.True(t, h.Running)
	assert.Equal(t, "1h0m0s", h.Interval)

	w.Stop()
	assert.False(t, w.Running())
	assert.Equal(t, escalation.HealthDown, w.Health().Status)
}

func TestWorker_TriggerCoalesces(t *testing.T) {
	e := newEnv(t, config.StandardWorkflow(), escalation.DefaultConfig())
	w := escalation.NewWorker(e.svc, time.Hour)

	assert.True(t, w.Trigger())
	assert.False(t, w.Trigger(), "a pending request absorbs the next")
}

func TestWorker_HealthDisabled(t *testing.T) {
	cfg := escalation.DefaultConfig()
	cfg.Enabled = false
	e := newEnv(t, config.StandardWorkflow(), cfg)

	w := escalation.NewWorker(e.svc, 0)
	h := w.Health()
	assert.Equal(t, escalation.HealthDisabled, h.Status)
	assert.Equal(t, config.DefaultEscalationInterval.String(), h.Interval)
}
