package escalation

import (
	"context"
	"sync"
	"time"

	"resolveit/backend/internal/config"
	"resolveit/backend/internal/logging"
)

// Health reports whether the periodic escalation loop is alive.
type Health struct {
	Status    string     `json:"status"`
	Enabled   bool       `json:"enabled"`
	Running   bool       `json:"running"`
	Interval  string     `json:"interval"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

const (
	HealthUp       = "UP"
	HealthDown     = "DOWN"
	HealthDisabled = "DISABLED"
)

// Worker runs the escalation pass on a ticker and on demand.
type Worker struct {
	svc      *Service
	interval time.Duration

	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr error
}

// NewWorker creates a worker. A non-positive interval falls back to the
// default.
func NewWorker(svc *Service, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = config.DefaultEscalationInterval
	}
	return &Worker{
		svc:       svc,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start starts the worker in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	go w.run(ctx)
}

// Stop stops the worker and waits for the current pass to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
}

// Trigger requests a pass outside the schedule. It never blocks; a
// request made while another is pending is coalesced and reports false.
func (w *Worker) Trigger() bool {
	select {
	case w.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

// Running reports whether the loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Health reports DOWN when the loop stopped, the last pass failed, or no
// pass happened for three intervals.
func (w *Worker) Health() Health {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := Health{
		Enabled:  w.svc.Config.Enabled,
		Running:  w.running,
		Interval: w.interval.String(),
		Status:   HealthUp,
	}
	if !w.lastRun.IsZero() {
		at := w.lastRun
		h.LastRunAt = &at
	}
	if w.lastErr != nil {
		h.LastError = w.lastErr.Error()
	}

	switch {
	case !h.Enabled:
		h.Status = HealthDisabled
	case !w.running || w.lastErr != nil:
		h.Status = HealthDown
	case !w.lastRun.IsZero() && w.svc.Now().Sub(w.lastRun) > 3*w.interval:
		h.Status = HealthDown
	}
	return h
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	logger := logging.Default()
	logger.Info("escalation worker started", "interval", w.interval.String())

	w.pass(ctx, "startup")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.pass(ctx, "schedule")
		case <-w.triggerCh:
			w.pass(ctx, "trigger")
		case <-w.stopCh:
			logger.Info("escalation worker stopped")
			return
		case <-ctx.Done():
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			logger.Info("escalation worker stopped by context")
			return
		}
	}
}

func (w *Worker) pass(ctx context.Context, trigger string) {
	runCtx, cancel := context.WithTimeout(ctx, config.EscalationRunTimeout)
	defer cancel()

	_, err := w.svc.RunOnce(runCtx, trigger)

	w.mu.Lock()
	w.lastRun = w.svc.Now()
	w.lastErr = err
	w.mu.Unlock()

	if err != nil {
		logging.Default().Error("escalation pass failed", logging.ErrAttrs(err)...)
	}
}
