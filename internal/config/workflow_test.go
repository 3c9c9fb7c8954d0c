package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"resolveit/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardWorkflow(t *testing.T) {
	w := config.StandardWorkflow()

	assert.Equal(t, "standard", w.Name)
	assert.Equal(t, "NEW", w.Initial)
	assert.Equal(t, "IN_PROGRESS", w.AssignedStatus)
	assert.Equal(t, "ESCALATED", w.EscalatedStatus)
	assert.True(t, w.HasEscalatedStatus())
	assert.True(t, w.IsTerminal("RESOLVED"))
	assert.True(t, w.IsTerminal("CLOSED"))
	assert.False(t, w.IsTerminal("ESCALATED"))

	assert.True(t, w.CanTransition("IN_PROGRESS", "ESCALATED"))
	assert.True(t, w.CanTransition("ESCALATED", "IN_PROGRESS"))
	assert.True(t, w.CanTransition("IN_PROGRESS", "RESOLVED"))
	assert.False(t, w.CanTransition("NEW", "CLOSED"))
	assert.False(t, w.CanTransition("CLOSED", "NEW"))
	assert.Empty(t, w.Next("CLOSED"))

	assert.True(t, w.Policy.RequireAssigneeToResolve)
	assert.True(t, w.Policy.DeEscalateIdempotent)
	assert.Contains(t, w.Categories, "TECHNICAL")
}

func TestSimpleWorkflow(t *testing.T) {
	w := config.SimpleWorkflow()

	assert.Equal(t, "PENDING", w.Initial)
	assert.False(t, w.HasEscalatedStatus())
	assert.True(t, w.CanTransition("PENDING", "IN_PROGRESS"))
	assert.False(t, w.Policy.RequireAssigneeToResolve)
	assert.Equal(t, config.DefaultCategories, w.Categories)
}

func TestBuiltinsAreIndependentCopies(t *testing.T) {
	a := config.StandardWorkflow()
	a.Transitions["NEW"] = nil

	b := config.StandardWorkflow()
	assert.True(t, b.CanTransition("NEW", "UNDER_REVIEW"))
}

func TestNormalizeStatus(t *testing.T) {
	w := config.StandardWorkflow()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"IN_PROGRESS", "IN_PROGRESS", true},
		{"in-progress", "IN_PROGRESS", true},
		{"Under Review", "UNDER_REVIEW", true},
		{"UNDER-REVIEW", "UNDER_REVIEW", true},
		{" resolved ", "RESOLVED", true},
		{"PENDING", "NEW", true},
		{"ASSIGNED", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := w.NormalizeStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCategoryAndUrgency(t *testing.T) {
	w := config.StandardWorkflow()

	c, ok := w.NormalizeCategory("technical")
	assert.True(t, ok)
	assert.Equal(t, "TECHNICAL", c)

	_, ok = w.NormalizeCategory("weather")
	assert.False(t, ok)

	u, ok := config.NormalizeUrgency("high")
	assert.True(t, ok)
	assert.Equal(t, "HIGH", u)

	_, ok = config.NormalizeUrgency("CRITICAL")
	assert.False(t, ok)
}

func TestParseWorkflowRejectsBrokenDefinitions(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{
			name: "no statuses",
			toml: `initial = "A"`,
		},
		{
			name: "unknown initial",
			toml: `
statuses = ["A", "B"]
initial = "X"
assigned_status = "B"
unassigned_status = "A"
resolved_status = "B"
terminal = ["B"]`,
		},
		{
			name: "resolved not terminal",
			toml: `
statuses = ["A", "B"]
initial = "A"
assigned_status = "A"
unassigned_status = "A"
resolved_status = "B"
terminal = []`,
		},
		{
			name: "edge to unknown status",
			toml: `
statuses = ["A", "B"]
initial = "A"
assigned_status = "A"
unassigned_status = "A"
resolved_status = "B"
terminal = ["B"]
[transitions]
A = ["C"]`,
		},
		{
			name: "duplicate status",
			toml: `
statuses = ["A", "a"]
initial = "A"`,
		},
		{
			name: "not toml",
			toml: `statuses = [`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.ParseWorkflow([]byte(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestLoadWorkflowFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.toml")
	def := `
version = "7"
statuses = ["open", "working", "done"]
initial = "open"
assigned_status = "working"
unassigned_status = "open"
resolved_status = "done"
terminal = ["done"]
categories = ["facilities"]

[transitions]
open = ["working"]
working = ["done", "open"]
`
	require.NoError(t, os.WriteFile(path, []byte(def), 0o600))

	w, err := config.LoadWorkflow(path)
	require.NoError(t, err)

	assert.Equal(t, "custom", w.Name)
	assert.Equal(t, "7", w.Version)
	assert.Equal(t, "OPEN", w.Initial)
	assert.True(t, w.CanTransition("WORKING", "DONE"))
	assert.Equal(t, []string{"FACILITIES"}, w.Categories)
	// Policy defaults apply when the file omits them.
	assert.True(t, w.Policy.RequireAssigneeToResolve)
	assert.True(t, w.Policy.DeEscalateIdempotent)
}

func TestLoadWorkflowMissingFile(t *testing.T) {
	_, err := config.LoadWorkflow(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
