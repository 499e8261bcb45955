// Fluxled-emulator is a software stand-in for a Magic Home / LEDENET WiFi
// LED controller.
//
// It speaks the controller's TCP command protocol (both the legacy framing
// and the V2 envelope, chosen by the emulated model) and can answer UDP
// discovery broadcasts, so fluxled and other clients can be exercised
// without hardware.
//
// Usage:
//
//	fluxled-emulator serve [flags]
//
// See 'fluxled-emulator serve --help' for available options.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/emulator"
	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/protocol"
	"github.com/muurk/fluxled/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fluxled-emulator",
	Short: "LED controller emulator",
	Long: `A software emulator for Magic Home / LEDENET WiFi LED controllers.

The emulator keeps the state a real controller would (power, levels,
pattern, timers and clock) and answers state, timer and clock queries
the way the emulated model's firmware does.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command flags
var (
	model         string
	host          string
	port          int
	deviceID      string
	discoveryOn   bool
	discoveryPort int
	advertiseIP   string
	logLevel      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the emulator",
	Long: `Start an emulated controller and serve it until interrupted.

The model id picks the capability profile and the protocol generation; see
'fluxled-emulator models' for the known ids.`,
	Example: `  # Emulate an RGBW controller on the standard port
  fluxled-emulator serve --model 0x44

  # Addressable strip (V2 framing) that also answers discovery
  fluxled-emulator serve --model 0xA3 --discovery --advertise-ip 192.168.1.50

  # Second emulator on another port with debug logging
  fluxled-emulator serve --model 0x35 --port 5578 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&model, "model", "0x44", "Model id to emulate")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", protocol.DefaultPort, "TCP command port")
	serveCmd.Flags().StringVar(&deviceID, "id", "", "Hardware id reported by discovery (default derived from the model)")
	serveCmd.Flags().BoolVar(&discoveryOn, "discovery", false, "Answer UDP discovery broadcasts")
	serveCmd.Flags().IntVar(&discoveryPort, "discovery-port", discovery.DiscoveryPort, "UDP discovery port")
	serveCmd.Flags().StringVar(&advertiseIP, "advertise-ip", "", "Address put in discovery replies (default: the address the probe was sent to)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	log := logging.GetLogger()

	n, err := strconv.ParseUint(model, 0, 8)
	if err != nil {
		return fmt.Errorf("invalid model %q: %w", model, err)
	}
	registry := models.NewRegistry(models.WithLogger(log))
	desc, ok := registry.LookupKnown(byte(n))
	if !ok {
		log.Warn("Unknown model id, emulating the fallback profile", zap.String("model", model))
		desc = registry.Lookup(byte(n))
	}

	var opts []emulator.ControllerOption
	if deviceID != "" {
		opts = append(opts, emulator.WithID(deviceID))
	}
	srv := emulator.New(emulator.NewController(desc, opts...), log)

	if err := srv.Listen(net.JoinHostPort(host, strconv.Itoa(port))); err != nil {
		return err
	}
	if discoveryOn {
		if err := srv.ListenDiscovery(net.JoinHostPort(host, strconv.Itoa(discoveryPort)), advertiseIP); err != nil {
			_ = srv.Shutdown(context.Background())
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Emulating %s on %s (id %s)\n", desc, srv.Addr(), srv.Controller().ID())
	return srv.Run(cmd.Context())
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model ids the emulator knows",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range models.NewRegistry().All() {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
	},
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fluxled-emulator %s\n", version.Full())
	},
}
