// Fluxled controls Magic Home / LEDENET WiFi LED controllers on the local
// network.
//
// It discovers controllers with the UDP broadcast handshake, reads and
// changes their color, white levels and patterns, and manages their
// on-board timers and clock. Devices can be addressed by IP or by an alias
// from the config file.
//
// Usage:
//
//	fluxled [command] [flags]
//
// See 'fluxled --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		// Failures already rendered as result boxes only set the exit code.
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fluxled",
	Short: "Magic Home / LEDENET WiFi LED controller utility",
	Long: `A command line utility for Magic Home / LEDENET WiFi LED controllers.

Discovers controllers on the local network, reads their state and sets
colors, white levels, built-in and custom patterns, timers and the device
clock. Devices are given with --device as an address or a configured alias.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxled %s\n", version.Full())
	},
}
