package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Redis is optional; without an address events stay in-process and
// escalation counters are kept in memory.
type Redis struct {
	addr     string
	password string
	db       int
}

func (r *Redis) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (host:port); enables cross-replica events",
			Sources:     cli.EnvVars("RESOLVEIT_REDIS_ADDR"),
			Destination: &r.addr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("RESOLVEIT_REDIS_PASSWORD"),
			Destination: &r.password,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Sources:     cli.EnvVars("RESOLVEIT_REDIS_DB"),
			Destination: &r.db,
		},
	}
}

func (r *Redis) IsConfigured() bool {
	return r.addr != ""
}

// Configure returns nil when Redis is not configured.
func (r *Redis) Configure(ctx context.Context) (*redis.Client, error) {
	if !r.IsConfigured() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     r.addr,
		Password: r.password,
		DB:       r.db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", r.addr))
	}
	return rdb, nil
}
