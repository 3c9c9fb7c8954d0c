package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"resolveit/backend/internal/cli"
	"resolveit/backend/internal/logging"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Default().Warn("failed to load .env file", "error", err)
	}

	if err := cli.Run(context.Background(), os.Args, version); err != nil {
		os.Exit(1)
	}
}
