package config

import (
	"embed"
	"os"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

//go:embed workflows/*.toml
var builtinWorkflows embed.FS

// Policy holds the workflow decisions that differ between deployments.
type Policy struct {
	// RequireAssigneeToResolve rejects resolving a complaint nobody owns.
	RequireAssigneeToResolve bool `toml:"require_assignee_to_resolve"`
	// DeEscalateIdempotent makes de-escalating a non-escalated complaint a
	// no-op instead of a conflict.
	DeEscalateIdempotent bool `toml:"deescalate_idempotent"`
}

// Workflow is the versioned status graph the complaint service enforces.
type Workflow struct {
	Name             string              `toml:"name"`
	Version          string              `toml:"version"`
	Statuses         []string            `toml:"statuses"`
	Initial          string              `toml:"initial"`
	AssignedStatus   string              `toml:"assigned_status"`
	UnassignedStatus string              `toml:"unassigned_status"`
	EscalatedStatus  string              `toml:"escalated_status"`
	ResolvedStatus   string              `toml:"resolved_status"`
	Terminal         []string            `toml:"terminal"`
	Transitions      map[string][]string `toml:"transitions"`
	Aliases          map[string]string   `toml:"aliases"`
	Categories       []string            `toml:"categories"`
	Policy           Policy              `toml:"policy"`
}

// StandardWorkflow returns the built-in six-state lifecycle.
func StandardWorkflow() *Workflow {
	return mustBuiltin("standard")
}

// SimpleWorkflow returns the built-in three-state lifecycle.
func SimpleWorkflow() *Workflow {
	return mustBuiltin("simple")
}

func mustBuiltin(name string) *Workflow {
	w, err := BuiltinWorkflow(name)
	if err != nil {
		panic(err)
	}
	return w
}

// BuiltinWorkflow loads one of the workflows shipped with the binary.
func BuiltinWorkflow(name string) (*Workflow, error) {
	data, err := builtinWorkflows.ReadFile("workflows/" + name + ".toml")
	if err != nil {
		return nil, goerr.New("unknown workflow", goerr.V("name", name))
	}
	return ParseWorkflow(data)
}

// LoadWorkflow resolves a workflow setting: a built-in name or a path to
// a TOML file.
func LoadWorkflow(nameOrPath string) (*Workflow, error) {
	switch nameOrPath {
	case "", "standard":
		return BuiltinWorkflow("standard")
	case "simple":
		return BuiltinWorkflow("simple")
	}

	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read workflow file", goerr.V("path", nameOrPath))
	}
	w, err := ParseWorkflow(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid workflow file", goerr.V("path", nameOrPath))
	}
	return w, nil
}

// ParseWorkflow decodes and validates a TOML workflow definition.
func ParseWorkflow(data []byte) (*Workflow, error) {
	w := &Workflow{
		Policy: Policy{RequireAssigneeToResolve: true, DeEscalateIdempotent: true},
	}
	if err := toml.Unmarshal(data, w); err != nil {
		return nil, goerr.Wrap(err, "failed to decode workflow")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// Validate normalizes the definition in place and checks that every
// referenced status exists.
func (w *Workflow) Validate() error {
	if len(w.Statuses) == 0 {
		return goerr.New("workflow has no statuses")
	}

	seen := make(map[string]bool, len(w.Statuses))
	for i, s := range w.Statuses {
		s = canonical(s)
		if s == "" {
			return goerr.New("empty status name")
		}
		if seen[s] {
			return goerr.New("duplicate status", goerr.V("status", s))
		}
		seen[s] = true
		w.Statuses[i] = s
	}

	named := []struct {
		field    string
		value    *string
		optional bool
	}{
		{"initial", &w.Initial, false},
		{"assigned_status", &w.AssignedStatus, false},
		{"unassigned_status", &w.UnassignedStatus, false},
		{"escalated_status", &w.EscalatedStatus, true},
		{"resolved_status", &w.ResolvedStatus, false},
	}
	for _, n := range named {
		*n.value = canonical(*n.value)
		if *n.value == "" && n.optional {
			continue
		}
		if !seen[*n.value] {
			return goerr.New("workflow references unknown status",
				goerr.V("field", n.field), goerr.V("status", *n.value))
		}
	}

	for i, s := range w.Terminal {
		s = canonical(s)
		if !seen[s] {
			return goerr.New("unknown terminal status", goerr.V("status", s))
		}
		w.Terminal[i] = s
	}
	if !slices.Contains(w.Terminal, w.ResolvedStatus) {
		return goerr.New("resolved status must be terminal", goerr.V("status", w.ResolvedStatus))
	}
	if slices.Contains(w.Terminal, w.Initial) {
		return goerr.New("initial status cannot be terminal", goerr.V("status", w.Initial))
	}

	edges := make(map[string][]string, len(w.Transitions))
	for from, targets := range w.Transitions {
		f := canonical(from)
		if !seen[f] {
			return goerr.New("transition from unknown status", goerr.V("status", from))
		}
		for _, to := range targets {
			t := canonical(to)
			if !seen[t] {
				return goerr.New("transition to unknown status", goerr.V("from", f), goerr.V("to", to))
			}
			edges[f] = append(edges[f], t)
		}
	}
	w.Transitions = edges

	aliases := make(map[string]string, len(w.Aliases))
	for alias, target := range w.Aliases {
		t := canonical(target)
		if !seen[t] {
			return goerr.New("alias to unknown status", goerr.V("alias", alias), goerr.V("status", target))
		}
		aliases[canonical(alias)] = t
	}
	w.Aliases = aliases

	if len(w.Categories) == 0 {
		w.Categories = slices.Clone(DefaultCategories)
	}
	for i, c := range w.Categories {
		w.Categories[i] = canonical(c)
	}

	if w.Name == "" {
		w.Name = "custom"
	}
	return nil
}

// NormalizeStatus maps user input ("in-progress", "Pending", ...) onto a
// canonical status name.
func (w *Workflow) NormalizeStatus(raw string) (string, bool) {
	s := canonical(raw)
	if slices.Contains(w.Statuses, s) {
		return s, true
	}
	if target, ok := w.Aliases[s]; ok {
		return target, true
	}
	return "", false
}

// NormalizeCategory maps user input onto a configured category.
func (w *Workflow) NormalizeCategory(raw string) (string, bool) {
	c := canonical(raw)
	if slices.Contains(w.Categories, c) {
		return c, true
	}
	return "", false
}

// IsTerminal reports whether no further work happens in status s.
func (w *Workflow) IsTerminal(s string) bool {
	return slices.Contains(w.Terminal, s)
}

// CanTransition reports whether from -> to is an edge of the graph.
func (w *Workflow) CanTransition(from, to string) bool {
	return slices.Contains(w.Transitions[from], to)
}

// Next lists the statuses reachable from s in one step.
func (w *Workflow) Next(s string) []string {
	return slices.Clone(w.Transitions[s])
}

// HasEscalatedStatus reports whether escalation moves the status or only
// flags the complaint.
func (w *Workflow) HasEscalatedStatus() bool {
	return w.EscalatedStatus != ""
}

// NormalizeUrgency maps user input onto one of Urgencies.
func NormalizeUrgency(raw string) (string, bool) {
	u := canonical(raw)
	if slices.Contains(Urgencies, u) {
		return u, true
	}
	return "", false
}

func canonical(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
