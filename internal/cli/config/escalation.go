package config

import (
	"time"

	"github.com/urfave/cli/v3"

	domain "resolveit/backend/internal/config"
	"resolveit/backend/internal/escalation"
)

type Escalation struct {
	enabled         bool
	interval        time.Duration
	grace           time.Duration
	unresolvedAfter time.Duration
}

func (e *Escalation) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "escalation-enabled",
			Usage:       "Run automatic escalation in the background",
			Value:       true,
			Sources:     cli.EnvVars("RESOLVEIT_ESCALATION_ENABLED"),
			Destination: &e.enabled,
		},
		&cli.DurationFlag{
			Name:        "escalation-interval",
			Usage:       "Time between escalation passes",
			Value:       domain.DefaultEscalationInterval,
			Sources:     cli.EnvVars("RESOLVEIT_ESCALATION_INTERVAL"),
			Destination: &e.interval,
		},
		&cli.DurationFlag{
			Name:        "escalation-grace",
			Usage:       "Extra time after a deadline before a complaint is escalated",
			Value:       domain.DefaultEscalationGrace,
			Sources:     cli.EnvVars("RESOLVEIT_ESCALATION_GRACE"),
			Destination: &e.grace,
		},
		&cli.DurationFlag{
			Name:        "escalation-unresolved-after",
			Usage:       "Also escalate unassigned complaints older than this (0 disables)",
			Value:       domain.DefaultUnresolvedAfter,
			Sources:     cli.EnvVars("RESOLVEIT_ESCALATION_UNRESOLVED_AFTER"),
			Destination: &e.unresolvedAfter,
		},
	}
}

func (e *Escalation) Configure() escalation.Config {
	return escalation.Config{
		Enabled:         e.enabled,
		Interval:        e.interval,
		Grace:           e.grace,
		UnresolvedAfter: e.unresolvedAfter,
	}
}
