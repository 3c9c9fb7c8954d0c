package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"resolveit/backend/internal/cli/config"
	"resolveit/backend/internal/logging"
)

func cmdMigrate() *cli.Command {
	var dbCfg config.Database

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create or update the PostgreSQL schema",
		Flags:   dbCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, closer, err := dbCfg.Open(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if err := svc.Migrate(ctx); err != nil {
				return err
			}
			logging.Default().Info("Schema migration completed")
			return nil
		},
	}
}
