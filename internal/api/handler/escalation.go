package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resolveit/backend/internal/escalation"
)

type escalationConfigDTO struct {
	Enabled         bool   `json:"enabled"`
	Interval        string `json:"interval"`
	Grace           string `json:"grace"`
	UnresolvedAfter string `json:"unresolvedAfter"`
	Workflow        string `json:"workflow"`
	EscalatedStatus string `json:"escalatedStatus,omitempty"`
}

func (h *Handler) EscalationStats(c *gin.Context) {
	stats, err := h.Escalation.CurrentStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) EscalationCandidates(c *gin.Context) {
	candidates, err := h.Escalation.Candidates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(candidates), "candidates": candidates})
}

// TriggerEscalation runs a pass now. With ?async=true and a running
// worker, the worker is poked and the request returns at once.
func (h *Handler) TriggerEscalation(c *gin.Context) {
	if formBool(c.Query("async")) && h.Worker != nil && h.Worker.Running() {
		queued := h.Worker.Trigger()
		c.JSON(http.StatusAccepted, gin.H{"queued": queued})
		return
	}

	res, err := h.Escalation.RunOnce(c.Request.Context(), "manual")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) EscalationConfig(c *gin.Context) {
	cfg := h.Escalation.Config
	c.JSON(http.StatusOK, escalationConfigDTO{
		Enabled:         cfg.Enabled,
		Interval:        cfg.Interval.String(),
		Grace:           cfg.Grace.String(),
		UnresolvedAfter: cfg.UnresolvedAfter.String(),
		Workflow:        h.Workflow.Name,
		EscalatedStatus: h.Workflow.EscalatedStatus,
	})
}

// TestEscalation is a dry run: it reports what a pass would escalate
// without changing anything.
func (h *Handler) TestEscalation(c *gin.Context) {
	candidates, err := h.Escalation.Candidates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ids := make([]uint, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.Complaint.ID)
	}
	c.JSON(http.StatusOK, gin.H{"dryRun": true, "wouldEscalate": len(ids), "complaintIds": ids})
}

// EscalationHealth needs no credentials so load balancers can probe it.
func (h *Handler) EscalationHealth(c *gin.Context) {
	var health escalation.Health
	if h.Worker != nil {
		health = h.Worker.Health()
	} else {
		health = escalation.Health{Status: escalation.HealthDisabled, Interval: h.Escalation.Config.Interval.String()}
	}

	status := http.StatusOK
	if health.Status == escalation.HealthDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}
