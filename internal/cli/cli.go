// Package cli is the resolveit command line: the API server and schema
// migration.
package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"resolveit/backend/internal/cli/config"
	"resolveit/backend/internal/logging"
)

// Run parses args and executes the selected command.
func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "resolveit",
		Usage:   "Complaint tracking and escalation service",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting resolveit", "version", version, "logger", loggerCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttrs(err)...)
		return err
	}
	return nil
}
