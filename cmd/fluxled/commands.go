package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fluxled/internal/device"
	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/state"
	"github.com/muurk/fluxled/internal/ui"
)

// Command flags
var (
	scanDuration  time.Duration
	scanBroadcast string
	scanProbe     string

	whiteCool bool

	levelFlags = map[models.Channel]*int{}

	patternSpeed      int
	presetList        bool
	customColors      []string
	customTransition  string
	customList bool
)

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(colorCmd)
	rootCmd.AddCommand(whiteCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(presetCmd)
	rootCmd.AddCommand(customCmd)

	scanCmd.Flags().DurationVar(&scanDuration, "duration", 0, "How long to listen for replies (default from config, 10s)")
	scanCmd.Flags().StringVar(&scanBroadcast, "broadcast", "", "Broadcast address (default from config)")
	scanCmd.Flags().StringVar(&scanProbe, "probe", "", "Ask a single address instead of broadcasting")

	whiteCmd.Flags().BoolVar(&whiteCool, "cool", false, "Set the cool white channel instead of warm white")

	for _, c := range models.AllChannels {
		levelFlags[c] = levelsCmd.Flags().Int(strings.ReplaceAll(c.String(), "_", "-"), -1, fmt.Sprintf("%s level 0-255", c))
	}

	presetCmd.Flags().IntVar(&patternSpeed, "speed", 50, "Pattern speed 0-100")
	presetCmd.Flags().BoolVar(&presetList, "list", false, "List the built-in presets")

	customCmd.Flags().IntVar(&patternSpeed, "speed", 50, "Pattern speed 0-100")
	customCmd.Flags().StringSliceVar(&customColors, "colors", nil, "Colors for an ad-hoc pattern (up to 16)")
	customCmd.Flags().StringVar(&customTransition, "transition", "gradual", "Transition (gradual, jump, strobe)")
	customCmd.Flags().BoolVar(&customList, "list", false, "List the patterns in the config file")
}

// scanCmd discovers controllers on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for LED controllers on the network",
	Long: `Scan for LED controllers using the UDP discovery broadcast.

Controllers answer with their IP address, hardware id and module string.
The scan re-sends the broadcast while waiting and reports each controller
once.`,
	Example: `  # Scan for 10 seconds (default)
  fluxled scan

  # Quick 3-second scan
  fluxled scan --duration 3s

  # Ask one controller directly
  fluxled scan --probe 192.168.1.20`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	s := newScanner()
	if scanDuration > 0 {
		s.Timeout = scanDuration
	}
	if scanBroadcast != "" {
		s.BroadcastAddress = scanBroadcast
	}

	var (
		results []discovery.ScanResult
		err     error
	)
	if scanProbe != "" {
		var (
			r  discovery.ScanResult
			ok bool
		)
		r, ok, err = s.Probe(cmd.Context(), scanProbe)
		if ok {
			results = append(results, r)
		}
	} else {
		if outputFormat == formatDetailed {
			fmt.Fprintf(out, "Scanning for LED controllers (timeout: %s)...\n\n", s.Timeout)
		}
		results, err = s.ScanForDevicesWithContext(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	switch outputFormat {
	case formatJSON:
		return printJSON(out, results)
	case formatCompact:
		for _, r := range results {
			fmt.Fprintf(out, "%s %s %s\n", r.HostPort(), r.ID, r.Model)
		}
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, ui.NewFailureResult("No devices found", nil, []string{
			"Ensure the controller is powered and joined to your WiFi network",
			"Check that this computer is on the same subnet",
			"Try increasing --duration for slower networks",
			"Use --broadcast with your subnet's broadcast address if the global one is filtered",
		}).Render())
		return nil
	}

	fmt.Fprintf(out, "Found %d device(s):\n\n", len(results))
	fmt.Fprintln(out, ui.RenderScanTable(results))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Use 'fluxled state --device <ip>' to read a controller's state")
	fmt.Fprintln(out, "Use 'fluxled alias add <name> <ip>' to save it under a name")
	return nil
}

// stateCmd reads and prints device state
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show device state",
	Long: `Query each device and show its power, mode, pattern and channel levels.`,
	Example: `  fluxled state --device 192.168.1.20
  fluxled state --all --format compact
  fluxled state -d desk -d shelf --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Device state", queryTask)
	},
}

// stateView is the json form of a device state
type stateView struct {
	ModelID   string `json:"model_id"`
	Model     string `json:"model"`
	Protocol  string `json:"protocol"`
	Firmware  int    `json:"firmware"`
	On        bool   `json:"on"`
	Mode      string `json:"mode"`
	Pattern   string `json:"pattern,omitempty"`
	Speed     *int   `json:"speed,omitempty"`
	Color     string `json:"color,omitempty"`
	WarmWhite *int   `json:"warm_white,omitempty"`
	CoolWhite *int   `json:"cool_white,omitempty"`
}

func newStateView(desc models.Descriptor, s state.DeviceState) stateView {
	v := stateView{
		ModelID:  fmt.Sprintf("0x%02X", desc.ModelNum),
		Model:    desc.Name,
		Protocol: desc.Generation.String(),
		Firmware: int(s.Version),
		On:       s.On,
		Mode:     s.Mode.String(),
	}
	switch s.Mode {
	case state.ModePresetPattern:
		if name, ok := pattern.PresetName(s.PatternCode); ok {
			v.Pattern = name
		}
		v.Speed = &s.Speed
	case state.ModeAddressable:
		v.Pattern = strconv.Itoa(int(s.PatternCode))
		v.Speed = &s.Speed
	case state.ModeCustomPattern:
		v.Speed = &s.Speed
	}
	if s.Channels().HasColor() {
		v.Color = s.RGB().String()
	}
	if w, ok := s.Level(models.WarmWhite); ok {
		n := int(w)
		v.WarmWhite = &n
	}
	if w, ok := s.Level(models.CoolWhite); ok {
		n := int(w)
		v.CoolWhite = &n
	}
	return v
}

func queryTask(ctx context.Context, c *device.Client) (report, error) {
	s, err := c.Query(ctx)
	if err != nil {
		return report{}, err
	}
	desc, _ := c.Descriptor()
	return report{
		Summary: s.String(),
		Body:    ui.RenderState(c.Addr(), desc, s, ui.GetTerminalWidth()),
		Data:    newStateView(desc, s),
	}, nil
}

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Turn devices on",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Power on", powerTask(true))
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Turn devices off",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Power off", powerTask(false))
	},
}

func powerTask(on bool) deviceTask {
	word := "off"
	if on {
		word = "on"
	}
	return func(ctx context.Context, c *device.Client) (report, error) {
		if err := c.SetPower(ctx, on); err != nil {
			return report{}, err
		}
		return report{
			Summary: "power " + word,
			Details: []ui.Detail{{Key: "Power", Value: word}},
			Data:    map[string]bool{"on": on},
		}, nil
	}
}

// colorCmd sets a solid color
var colorCmd = &cobra.Command{
	Use:   "color <color>",
	Short: "Set a solid color",
	Long: `Set a solid RGB color. The color may be a CSS name, a name from the
config file, a #rrggbb or #rgb hex string, or an "r,g,b" triple.`,
	Example: `  fluxled color red --device desk
  fluxled color "#ff8800" --all
  fluxled color 255,128,0 -d 192.168.1.20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rgb, err := cfg.ColorTable().Resolve(args[0])
		if err != nil {
			return err
		}
		return runOnDevices(cmd, "Set color", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetColor(ctx, rgb); err != nil {
				return report{}, err
			}
			return report{
				Summary: "color " + rgb.String(),
				Details: []ui.Detail{{Key: "Color", Value: ui.RenderSwatch(rgb) + " " + ui.DescribeColor(rgb)}},
				Data:    map[string]string{"color": rgb.String()},
			}, nil
		})
	},
}

// whiteCmd sets a white channel
var whiteCmd = &cobra.Command{
	Use:   "white <percent>",
	Short: "Set white brightness",
	Long: `Set the warm white channel (or cool white with --cool) to a 0-100
percent level.`,
	Example: `  fluxled white 80 --device desk
  fluxled white 40 --cool --device bulb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[0], err)
		}
		channel := models.WarmWhite
		if whiteCool {
			channel = models.CoolWhite
		}
		return runOnDevices(cmd, "Set white", func(ctx context.Context, c *device.Client) (report, error) {
			set := c.SetWarmWhite
			if whiteCool {
				set = c.SetCoolWhite
			}
			if err := set(ctx, percent); err != nil {
				return report{}, err
			}
			return report{
				Summary: fmt.Sprintf("%s %d%%", channel, percent),
				Details: []ui.Detail{{Key: channel.String(), Value: fmt.Sprintf("%d%%", percent)}},
				Data:    map[string]int{channel.String(): percent},
			}, nil
		})
	},
}

// levelsCmd writes raw channel levels
var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Set raw channel levels",
	Long: `Write raw 0-255 levels to any combination of channels. Channels that are
not given are left to the device's write mode.`,
	Example: `  fluxled levels --red 255 --warm-white 40 --device desk`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var l state.Levels
		var parts []string
		for _, c := range models.AllChannels {
			v := *levelFlags[c]
			if v < 0 {
				continue
			}
			if v > 255 {
				return fmt.Errorf("%s level %d outside 0-255", c, v)
			}
			l = l.With(c, byte(v))
			parts = append(parts, fmt.Sprintf("%s=%d", c, v))
		}
		if len(parts) == 0 {
			return fmt.Errorf("give at least one channel level")
		}
		summary := strings.Join(parts, " ")
		return runOnDevices(cmd, "Set levels", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetLevels(ctx, l); err != nil {
				return report{}, err
			}
			return report{Summary: summary, Details: []ui.Detail{{Key: "Levels", Value: summary}}}, nil
		})
	},
}

// presetCmd starts a built-in pattern
var presetCmd = &cobra.Command{
	Use:   "preset <name|code>",
	Short: "Start a built-in pattern",
	Long: `Start one of the built-in patterns by name (see --list) or by code.
Addressable strips take an effect number 1-100 instead.`,
	Example: `  fluxled preset colorloop --speed 80 --device desk
  fluxled preset 0x26 --all
  fluxled preset --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if presetList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if presetList {
			return listPresets(cmd)
		}
		code, err := parsePreset(args[0])
		if err != nil {
			return err
		}
		return runOnDevices(cmd, "Start preset", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetPreset(ctx, code, patternSpeed); err != nil {
				return report{}, err
			}
			name, ok := pattern.PresetName(code)
			if !ok {
				name = fmt.Sprintf("effect %d", code)
			}
			return report{
				Summary: fmt.Sprintf("preset %s speed %d%%", name, patternSpeed),
				Details: []ui.Detail{
					{Key: "Pattern", Value: name},
					{Key: "Speed", Value: fmt.Sprintf("%d%%", patternSpeed)},
				},
				Data: map[string]any{"pattern": name, "code": code, "speed": patternSpeed},
			}, nil
		})
	},
}

// parsePreset accepts a preset name or a numeric code
func parsePreset(s string) (byte, error) {
	if code, ok := pattern.PresetByName(strings.ToLower(s)); ok {
		return code, nil
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown preset %q (see 'fluxled preset --list')", s)
	}
	return byte(n), nil
}

func listPresets(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	names := pattern.PresetNames()
	if outputFormat == formatJSON {
		return printJSON(out, names)
	}
	for _, name := range names {
		code, _ := pattern.PresetByName(name)
		fmt.Fprintf(out, "0x%02X  %s\n", code, name)
	}
	return nil
}

// customCmd plays a custom color sequence
var customCmd = &cobra.Command{
	Use:   "custom [pattern]",
	Short: "Play a custom color pattern",
	Long: `Play a custom pattern of up to 16 colors. Give the name of a pattern from
the config file, or build one with --colors, --transition and --speed.`,
	Example: `  fluxled custom sunset --device desk
  fluxled custom --colors red,orange,yellow --transition jump --speed 70 --all
  fluxled custom --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if customList {
			return listPatterns(cmd)
		}
		p, err := customFromFlags(cmd, args)
		if err != nil {
			return err
		}
		return runOnDevices(cmd, "Play custom pattern", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetCustomPattern(ctx, p); err != nil {
				return report{}, err
			}
			swatches := make([]string, len(p.Colors))
			hex := make([]string, len(p.Colors))
			for i, rgb := range p.Colors {
				swatches[i] = ui.RenderSwatch(rgb)
				hex[i] = rgb.String()
			}
			return report{
				Summary: fmt.Sprintf("custom %s speed %d%% %d colors", p.Transition, p.Speed, len(p.Colors)),
				Details: []ui.Detail{
					{Key: "Transition", Value: p.Transition.String()},
					{Key: "Speed", Value: fmt.Sprintf("%d%%", p.Speed)},
					{Key: "Colors", Value: strings.Join(swatches, " ")},
				},
				Data: map[string]any{"transition": p.Transition.String(), "speed": p.Speed, "colors": hex},
			}, nil
		})
	},
}

func customFromFlags(cmd *cobra.Command, args []string) (pattern.Custom, error) {
	table := cfg.ColorTable()
	if len(args) == 1 {
		if len(customColors) > 0 {
			return pattern.Custom{}, fmt.Errorf("give either a pattern name or --colors, not both")
		}
		p, err := cfg.Pattern(args[0], table)
		if err != nil {
			return pattern.Custom{}, err
		}
		if cmd.Flags().Changed("speed") {
			p.Speed = patternSpeed
		}
		return p, p.Validate()
	}

	if len(customColors) == 0 {
		return pattern.Custom{}, fmt.Errorf("give a pattern name or --colors")
	}
	transition, err := pattern.ParseTransition(customTransition)
	if err != nil {
		return pattern.Custom{}, err
	}
	p := pattern.Custom{Transition: transition, Speed: patternSpeed}
	for _, s := range customColors {
		rgb, err := table.Resolve(s)
		if err != nil {
			return pattern.Custom{}, err
		}
		p.Colors = append(p.Colors, rgb)
	}
	return p, p.Validate()
}

func listPatterns(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	names := cfg.PatternNames()
	if outputFormat == formatJSON {
		return printJSON(out, names)
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "No patterns in the config file.")
		return nil
	}
	table := cfg.ColorTable()
	for _, name := range names {
		p, err := cfg.Pattern(name, table)
		if err != nil {
			fmt.Fprintf(out, "%-16s invalid: %v\n", name, err)
			continue
		}
		swatches := make([]string, len(p.Colors))
		for i, rgb := range p.Colors {
			swatches[i] = ui.RenderSwatch(rgb)
		}
		fmt.Fprintf(out, "%-16s %-8s %3d%%  %s\n", name, p.Transition, p.Speed, strings.Join(swatches, " "))
	}
	return nil
}
