package main

import (
	"github.com/spf13/cobra"

	"github.com/jamezpolley/stashboard/internal/app"
	"github.com/jamezpolley/stashboard/internal/config"
	"github.com/jamezpolley/stashboard/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and command listeners",
	Long: `Start stashboard.

The server:
  - opens the configured store (memory or redis)
  - applies STASHBOARD_SEED_FILE when set and keeps reloading it
  - listens for chat commands on NATS when STASHBOARD_NATS_URL is set
  - serves the HTTP API on STASHBOARD_LISTEN_PORT

It runs until interrupted (Ctrl+C) or it receives SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to start", logger.Error(err))
		return err
	}
	return a.Run()
}
