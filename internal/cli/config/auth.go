package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"resolveit/backend/internal/auth"
	domain "resolveit/backend/internal/config"
)

type Auth struct {
	secret string
	ttl    time.Duration
}

func (a *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HMAC secret for bearer tokens (required)",
			Sources:     cli.EnvVars("RESOLVEIT_JWT_SECRET", "JWT_SECRET"),
			Destination: &a.secret,
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Bearer token lifetime",
			Value:       domain.DefaultTokenTTL,
			Sources:     cli.EnvVars("RESOLVEIT_TOKEN_TTL"),
			Destination: &a.ttl,
		},
	}
}

func (a *Auth) Configure() (*auth.TokenIssuer, error) {
	issuer, err := auth.NewTokenIssuer(a.secret, domain.TokenIssuer, a.ttl)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure tokens")
	}
	return issuer, nil
}
