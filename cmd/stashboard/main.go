// Command stashboard runs the chat-command and notification engine.
//
// Usage:
//
//	stashboard serve                          # HTTP API, NATS commands, notifications
//	stashboard exec --from alice@example.com services
//	stashboard seed validate -f seed.yaml
//	stashboard version
//
// Runtime settings come from STASHBOARD_* environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamezpolley/stashboard/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "stashboard",
	Short: "Service status chat commands and change notifications",
	Long: `Stashboard keeps the status history of a set of services, answers chat
commands about them (services, service, sub, unsub, addservice, help) and
notifies subscribers when a service changes status.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
