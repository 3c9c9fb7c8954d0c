package config

import (
	"github.com/urfave/cli/v3"

	domain "resolveit/backend/internal/config"
)

type Workflow struct {
	name string
}

func (w *Workflow) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "workflow",
			Usage:       "Built-in workflow name (standard, simple) or path to a TOML definition",
			Value:       "standard",
			Sources:     cli.EnvVars("RESOLVEIT_WORKFLOW"),
			Destination: &w.name,
		},
	}
}

func (w *Workflow) Configure() (*domain.Workflow, error) {
	return domain.LoadWorkflow(w.name)
}
