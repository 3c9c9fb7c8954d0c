package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	gormlogger "gorm.io/gorm/logger"

	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/storage"
)

// Database selects the complaint store.
type Database struct {
	backend     string
	dsn         string
	autoMigrate bool
}

func (d *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-backend",
			Usage:       "Storage backend (postgres or memory)",
			Value:       "postgres",
			Sources:     cli.EnvVars("RESOLVEIT_DB_BACKEND"),
			Destination: &d.backend,
		},
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL DSN, e.g. host=localhost user=resolveit dbname=resolveit sslmode=disable",
			Sources:     cli.EnvVars("RESOLVEIT_DB_DSN", "DATABASE_URL"),
			Destination: &d.dsn,
		},
		&cli.BoolFlag{
			Name:        "db-auto-migrate",
			Usage:       "Create or update tables at startup",
			Value:       true,
			Sources:     cli.EnvVars("RESOLVEIT_DB_AUTO_MIGRATE"),
			Destination: &d.autoMigrate,
		},
	}
}

// Open connects to PostgreSQL. It is used by serve and migrate; the
// admin tool goes through storage.OpenPostgres directly.
func (d *Database) Open(ctx context.Context) (*storage.Service, func(), error) {
	if d.dsn == "" {
		return nil, nil, goerr.New("db-dsn is required for the postgres backend")
	}

	svc, err := storage.OpenPostgres(ctx, d.dsn, gormlogger.Warn)
	if err != nil {
		return nil, nil, err
	}

	closer := func() {
		if err := svc.Close(); err != nil {
			logging.Default().Error("failed to close database", logging.ErrAttrs(err)...)
		}
	}
	return svc, closer, nil
}

// Configure returns the configured store, migrating it when asked.
func (d *Database) Configure(ctx context.Context) (storage.Storage, func(), error) {
	switch d.backend {
	case "memory":
		logging.Default().Warn("Using in-memory storage; data is lost on restart")
		return storage.NewMemoryStore(), func() {}, nil

	case "postgres", "":
		svc, closer, err := d.Open(ctx)
		if err != nil {
			return nil, nil, err
		}
		if d.autoMigrate {
			if err := svc.Migrate(ctx); err != nil {
				closer()
				return nil, nil, err
			}
		}
		logging.Default().Info("Using PostgreSQL storage", "auto_migrate", d.autoMigrate)
		return svc, closer, nil

	default:
		return nil, nil, goerr.New("unknown db-backend", goerr.V("backend", d.backend))
	}
}
