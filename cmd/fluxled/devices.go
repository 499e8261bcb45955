package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fluxled/internal/config"
	"github.com/muurk/fluxled/internal/device"
	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/logging"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/protocol"
	"github.com/muurk/fluxled/internal/ui"
)

// Output formats
const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
	formatJSON     = "json"
)

// errReported marks a failure whose details were already printed
var errReported = errors.New("command failed")

// Global flags
var (
	deviceArgs   []string
	allDevices   bool
	devicePort   int
	timeout      time.Duration
	retries      int
	outputFormat string
	configPath   string
	logLevel     string
)

// Loaded in setup
var (
	cfg      *config.Config
	registry *models.Registry
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&deviceArgs, "device", "d", nil, "Device address or alias (repeatable)")
	pf.BoolVar(&allDevices, "all", false, "Address every device in the config file")
	pf.IntVar(&devicePort, "port", 0, "Command port for addresses without one (default from config, 5577)")
	pf.DurationVar(&timeout, "timeout", 0, "Per-request timeout (default from config, 5s)")
	pf.IntVar(&retries, "retries", -1, "Extra attempts after a transient failure (default from config, 2)")
	pf.StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json)")
	pf.StringVar(&configPath, "config", "", "Config file path (default $"+config.ConfigPathEnvVar+" or the user config dir)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default $"+logging.LogLevelEnvVar)
}

// setup loads the config file and fills unset flags from its defaults
func setup(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	d := cfg.Defaults
	if devicePort == 0 {
		devicePort = d.Port
	}
	if timeout == 0 {
		timeout = d.Timeout
	}
	if retries < 0 {
		retries = d.Retries
	}
	if outputFormat == "" {
		outputFormat = d.Format
	}
	switch outputFormat {
	case formatDetailed, formatCompact, formatJSON:
	default:
		return fmt.Errorf("unknown format %q (expected detailed, compact or json)", outputFormat)
	}

	registry = models.NewRegistry(models.WithLogger(logging.GetLogger()))
	return nil
}

// target is one device a command addresses
type target struct {
	name string // alias, or the address as given
	config.Target
}

// resolveTargets expands --device and --all. With neither, a single
// controller found by discovery is used.
func resolveTargets(ctx context.Context, out io.Writer) ([]target, error) {
	names := append([]string(nil), deviceArgs...)
	if allDevices {
		names = append(names, cfg.Aliases()...)
	}
	if len(names) == 0 {
		addr, err := discoverSingle(ctx, out)
		if err != nil {
			return nil, err
		}
		names = []string{addr}
	}

	seen := make(map[string]bool, len(names))
	targets := make([]target, 0, len(names))
	for _, n := range names {
		t, err := cfg.ResolveDevice(n)
		if err != nil {
			return nil, err
		}
		t.Address = withPort(t.Address)
		if seen[t.Address] {
			continue
		}
		seen[t.Address] = true
		targets = append(targets, target{name: n, Target: t})
	}
	return targets, nil
}

// discoverSingle scans briefly and returns the only controller that answers
func discoverSingle(ctx context.Context, out io.Writer) (string, error) {
	fmt.Fprintln(out, "No device specified, attempting discovery...")

	s := newScanner()
	s.Timeout = 3 * time.Second
	devices, err := s.ScanForDevicesWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	switch len(devices) {
	case 0:
		return "", fmt.Errorf("no devices found. Use --device to give an address or alias")
	case 1:
		fmt.Fprintf(out, "Found %s (%s)\n\n", devices[0].Address, devices[0].ModelName)
		return devices[0].HostPort(), nil
	default:
		fmt.Fprintf(out, "Found %d devices:\n", len(devices))
		for i, d := range devices {
			fmt.Fprintf(out, "%d. %s\n", i+1, d)
		}
		return "", fmt.Errorf("multiple devices found. Use --device or --all to choose")
	}
}

func newScanner() *discovery.Scanner {
	s := discovery.NewScanner(registry)
	s.Timeout = cfg.Defaults.DiscoveryTimeout
	s.BroadcastAddress = cfg.Defaults.BroadcastAddress
	s.Logger = logging.GetLogger()
	return s
}

// withPort adds the configured command port to a bare host
func withPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, strconv.Itoa(devicePort))
}

// newClientOptions returns the options every client gets from flags and config
func newClientOptions() []device.Option {
	return []device.Option{
		device.WithLogger(logging.GetLogger()),
		device.WithRegistry(registry),
		device.WithTimeout(timeout),
		device.WithRetries(retries),
	}
}

func newClient(t target) *device.Client {
	opts := newClientOptions()
	if t.HasModel {
		opts = append(opts, device.WithModel(t.Model))
	}
	if t.HasGen {
		opts = append(opts, device.WithGeneration(t.Generation))
	}
	return device.New(t.Address, opts...)
}

// report is what a task has to say about one device
type report struct {
	Summary string      // one line, used for compact output and step notes
	Details []ui.Detail // shown in the single device result box
	Body    string      // pre-rendered block such as a table
	Data    any         // json payload
}

// deviceTask runs one command against one device
type deviceTask func(ctx context.Context, c *device.Client) (report, error)

// outcome is the json form of one device's result
type outcome struct {
	Device  string `json:"device"`
	Address string `json:"address"`
	OK      bool   `json:"ok"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// runOnDevices resolves the targets and runs task against each of them,
// printing results in the selected format.
func runOnDevices(cmd *cobra.Command, title string, task deviceTask) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	targets, err := resolveTargets(ctx, out)
	if err != nil {
		return err
	}

	clients := make([]*device.Client, len(targets))
	index := make(map[string]int, len(targets))
	for i, t := range targets {
		clients[i] = newClient(t)
		index[clients[i].Addr()] = i
	}
	defer func() {
		for _, c := range clients {
			_ = c.Close()
		}
	}()

	reports := make([]report, len(targets))
	var mu sync.Mutex
	run := func(onStep ui.StepCallback) map[string]error {
		return device.Batch(ctx, clients, device.DefaultBatchLimit, func(ctx context.Context, c *device.Client) error {
			i := index[c.Addr()]
			r, err := task(ctx, c)
			mu.Lock()
			reports[i] = r
			mu.Unlock()
			if onStep != nil {
				if err != nil {
					onStep(i+1, ui.StepFailed, err.Error())
				} else {
					onStep(i+1, ui.StepComplete, r.Summary)
				}
			}
			return err
		})
	}

	var results map[string]error
	switch {
	case outputFormat == formatDetailed && len(targets) > 1:
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = t.name
		}
		runner := ui.NewRunner(ui.RunnerConfig{
			Title:   title,
			Command: cmd.CommandPath() + " " + strings.Join(cmd.Flags().Args(), " "),
			Targets: names,
			Output:  out,
		})
		_ = runner.Run(func(onStep ui.StepCallback) error {
			results = run(onStep)
			return nil
		})
		for i := range targets {
			if reports[i].Body != "" && results[clients[i].Addr()] == nil {
				fmt.Fprintf(out, "\n%s\n%s\n", targets[i].name, reports[i].Body)
			}
		}
	default:
		results = run(nil)
		if err := printResults(out, title, targets, clients, reports, results); err != nil {
			return err
		}
	}

	failed := 0
	for _, err := range results {
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		if outputFormat == formatDetailed {
			return errReported
		}
		return fmt.Errorf("%d of %d device(s) failed", failed, len(targets))
	}
	return nil
}

func printResults(out io.Writer, title string, targets []target, clients []*device.Client, reports []report, results map[string]error) error {
	switch outputFormat {
	case formatJSON:
		outcomes := make([]outcome, len(targets))
		for i, t := range targets {
			o := outcome{Device: t.name, Address: clients[i].Addr(), Summary: reports[i].Summary, Data: reports[i].Data}
			if err := results[clients[i].Addr()]; err != nil {
				o.Error = err.Error()
			} else {
				o.OK = true
			}
			outcomes[i] = o
		}
		return printJSON(out, outcomes)

	case formatCompact:
		for i, t := range targets {
			if err := results[clients[i].Addr()]; err != nil {
				fmt.Fprintf(out, "%s: error: %v\n", t.name, err)
				continue
			}
			fmt.Fprintf(out, "%s: %s\n", t.name, reports[i].Summary)
		}
		return nil

	default:
		// single device
		t, r := targets[0], reports[0]
		if err := results[clients[0].Addr()]; err != nil {
			fmt.Fprintln(out, ui.NewFailureResult(title+" on "+t.name, err, troubleshooting(err)).Render())
			return nil
		}
		if r.Body != "" {
			fmt.Fprintln(out, r.Body)
		}
		if len(r.Details) > 0 || r.Body == "" {
			details := append([]ui.Detail{{Key: "Device", Value: t.name}}, r.Details...)
			fmt.Fprintln(out, ui.NewSuccessResult(title, details...).Render())
		}
		return nil
	}
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// troubleshooting suggests next steps for a device error
func troubleshooting(err error) []string {
	switch protocol.KindOf(err) {
	case protocol.KindUnreachable:
		return []string{
			"Ensure the controller is powered and joined to your WiFi network",
			"Run 'fluxled scan' to confirm its current address",
			"Try increasing --timeout or --retries on slow networks",
		}
	case protocol.KindUnsupportedChannel:
		return []string{"Run 'fluxled state' to see which channels this model has"}
	case protocol.KindInvalidRange, protocol.KindTooManyColors:
		return []string{"Check the values passed on the command line"}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return []string{"The command was interrupted before the device answered"}
	}
	return nil
}
