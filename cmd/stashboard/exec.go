package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamezpolley/stashboard/internal/app"
	"github.com/jamezpolley/stashboard/internal/config"
	"github.com/jamezpolley/stashboard/internal/logger"
)

var execCmd = &cobra.Command{
	Use:   "exec [--from address] <command> [args...]",
	Short: "Run one chat command and print the reply",
	Long: `Run a single chat command against the configured store, as if it had
been sent by --from. Useful with STASHBOARD_STORE=redis to inspect or
change shared state from a shell.

Example:
  stashboard exec --from alice@example.com sub database
  stashboard exec services`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().String("from", "cli@localhost", "sender address")
}

func runExec(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	reply, err := app.Exec(cmd.Context(), cfg, log, from, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply.Body)
	return nil
}
