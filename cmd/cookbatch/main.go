package main

import (
	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"cookbatch/internal/cli"
)

// These variables are populated by the build via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Tokens (GITLAB_TOKEN, GITHUB_TOKEN) may live in a local .env.
	_ = godotenv.Load()

	logger.SetFormatter(&logger.TextFormatter{FullTimestamp: true})

	cli.SetBuildInfo(version, commit, date)
	cli.Execute()
}
