package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/fluxled/internal/device"
	"github.com/muurk/fluxled/internal/timer"
	"github.com/muurk/fluxled/internal/ui"
)

// Timer flags
var (
	timerTime     string
	timerDays     string
	timerDate     string
	timerAction   string
	timerColor    string
	timerWhite    int
	timerPreset   string
	timerSpeed    int
	timerStart    int
	timerEnd      int
	timerDuration int
	timerAllSlots bool
)

func init() {
	rootCmd.AddCommand(timersCmd)
	timersCmd.AddCommand(timersSetCmd)
	timersCmd.AddCommand(timersClearCmd)
	rootCmd.AddCommand(clockCmd)
	clockCmd.AddCommand(clockSyncCmd)
	clockCmd.AddCommand(clockSetCmd)

	f := timersSetCmd.Flags()
	f.StringVar(&timerTime, "time", "", "Time of day as HH:MM (required)")
	f.StringVar(&timerDays, "days", "", "Repeat on weekdays: everyday, weekdays, weekend or e.g. Mo,We,Fr")
	f.StringVar(&timerDate, "date", "", "Fire once on a date (YYYY-MM-DD)")
	f.StringVar(&timerAction, "action", "on", "Action: on, off, color, white, preset, sunrise, sunset")
	f.StringVar(&timerColor, "color", "", "Color for --action color")
	f.IntVar(&timerWhite, "white", 100, "Warm white percent for --action white")
	f.StringVar(&timerPreset, "preset", "", "Preset name or code for --action preset")
	f.IntVar(&timerSpeed, "speed", 50, "Preset speed 0-100")
	f.IntVar(&timerStart, "start", 0, "Sunrise/sunset start brightness percent")
	f.IntVar(&timerEnd, "end", 100, "Sunrise/sunset end brightness percent")
	f.IntVar(&timerDuration, "duration", 30, "Sunrise/sunset duration in minutes")
	_ = timersSetCmd.MarkFlagRequired("time")
	timersSetCmd.MarkFlagsMutuallyExclusive("days", "date")

	timersClearCmd.Flags().BoolVar(&timerAllSlots, "all-slots", false, "Clear every slot")
}

// timersCmd shows the on-device timer table
var timersCmd = &cobra.Command{
	Use:   "timers",
	Short: "Show device timers",
	Long: `Read the six on-device timer slots. Timers run on the controller itself
using its own clock; see 'fluxled clock'.`,
	Example: `  fluxled timers --device desk
  fluxled timers set 1 --time 07:30 --days weekdays --action color --color orange -d desk
  fluxled timers clear 1 -d desk`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Timers", func(ctx context.Context, c *device.Client) (report, error) {
			slots, err := c.GetTimers(ctx)
			if err != nil {
				return report{}, err
			}
			return timersReport(slots), nil
		})
	},
}

// slotView is the json form of a timer slot
type slotView struct {
	Index  int    `json:"index"`
	Active bool   `json:"active"`
	Time   string `json:"time,omitempty"`
	Repeat string `json:"repeat,omitempty"`
	Date   string `json:"date,omitempty"`
	Action string `json:"action,omitempty"`
}

func timersReport(slots [timer.NumSlots]timer.Slot) report {
	views := make([]slotView, len(slots))
	active := 0
	for i, s := range slots {
		views[i] = slotView{Index: s.Index, Active: s.Active}
		if !s.Active {
			continue
		}
		active++
		views[i].Time = fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
		views[i].Action = s.Action.String()
		if s.Repeating() {
			views[i].Repeat = s.Repeat.String()
		} else {
			views[i].Date = s.Date.String()
		}
	}
	return report{
		Summary: fmt.Sprintf("%d of %d timers active", active, timer.NumSlots),
		Body:    ui.RenderTimerTable(slots),
		Data:    views,
	}
}

// timersSetCmd programs one slot, keeping the others
var timersSetCmd = &cobra.Command{
	Use:   "set <slot>",
	Short: "Program a timer slot",
	Long: `Program timer slot 1-6. The other slots are read from the device first
and written back unchanged.`,
	Example: `  fluxled timers set 1 --time 07:00 --days weekdays --action sunrise --duration 20 -d bedroom
  fluxled timers set 2 --time 23:30 --date 2026-12-31 --action off -d desk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := slotFromFlags(args[0])
		if err != nil {
			return err
		}
		return runOnDevices(cmd, "Set timer", editTimers(func(slots *[timer.NumSlots]timer.Slot) {
			slots[slot.Index-1] = slot
		}))
	},
}

// timersClearCmd deactivates slots
var timersClearCmd = &cobra.Command{
	Use:   "clear [slot]",
	Short: "Clear a timer slot",
	Args: func(cmd *cobra.Command, args []string) error {
		if timerAllSlots {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		first, last := 1, timer.NumSlots
		if !timerAllSlots {
			n, err := parseSlotIndex(args[0])
			if err != nil {
				return err
			}
			first, last = n, n
		}
		return runOnDevices(cmd, "Clear timer", editTimers(func(slots *[timer.NumSlots]timer.Slot) {
			for i := first; i <= last; i++ {
				slots[i-1] = timer.Slot{Index: i}
			}
		}))
	},
}

// editTimers reads the table, applies edit and writes it back
func editTimers(edit func(*[timer.NumSlots]timer.Slot)) deviceTask {
	return func(ctx context.Context, c *device.Client) (report, error) {
		slots, err := c.GetTimers(ctx)
		if err != nil {
			return report{}, err
		}
		edit(&slots)
		if err := c.SetTimers(ctx, slots); err != nil {
			return report{}, err
		}
		return timersReport(slots), nil
	}
}

func parseSlotIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > timer.NumSlots {
		return 0, fmt.Errorf("slot %q must be 1-%d", s, timer.NumSlots)
	}
	return n, nil
}

// slotFromFlags builds the slot described by the timers set flags
func slotFromFlags(index string) (timer.Slot, error) {
	n, err := parseSlotIndex(index)
	if err != nil {
		return timer.Slot{}, err
	}
	at, err := time.Parse("15:04", timerTime)
	if err != nil {
		return timer.Slot{}, fmt.Errorf("invalid --time %q (expected HH:MM)", timerTime)
	}
	slot := timer.Slot{Index: n, Active: true, Hour: at.Hour(), Minute: at.Minute()}

	switch {
	case timerDate != "":
		d, err := time.ParseInLocation("2006-01-02", timerDate, time.Local)
		if err != nil {
			return timer.Slot{}, fmt.Errorf("invalid --date %q (expected YYYY-MM-DD)", timerDate)
		}
		slot.Date = timer.DateOf(d)
	case timerDays != "":
		slot.Repeat, err = timer.ParseWeekdays(timerDays)
		if err != nil {
			return timer.Slot{}, err
		}
	default:
		slot.Repeat = timer.Everyday
	}

	slot.Action, err = actionFromFlags()
	if err != nil {
		return timer.Slot{}, err
	}
	// catch range problems before touching any device
	if _, err := timer.EncodeSlot(slot); err != nil {
		return timer.Slot{}, err
	}
	return slot, nil
}

func actionFromFlags() (timer.Action, error) {
	switch strings.ToLower(timerAction) {
	case "on", "default":
		return timer.Default(), nil
	case "off":
		return timer.PowerOff(), nil
	case "color":
		if timerColor == "" {
			return timer.Action{}, fmt.Errorf("--action color needs --color")
		}
		rgb, err := cfg.ColorTable().Resolve(timerColor)
		if err != nil {
			return timer.Action{}, err
		}
		return timer.SolidColor(rgb), nil
	case "white":
		if timerWhite < 1 || timerWhite > 100 {
			return timer.Action{}, fmt.Errorf("--white %d outside 1-100", timerWhite)
		}
		return timer.WarmWhite(timerWhite), nil
	case "preset":
		code, err := parsePreset(timerPreset)
		if err != nil {
			return timer.Action{}, err
		}
		return timer.Preset(code, timerSpeed), nil
	case "sunrise", "sunset":
		if timerDuration < 1 || timerDuration > 255 {
			return timer.Action{}, fmt.Errorf("--duration %d outside 1-255 minutes", timerDuration)
		}
		if strings.EqualFold(timerAction, "sunset") {
			return timer.Sunset(timerStart, timerEnd, byte(timerDuration)), nil
		}
		return timer.Sunrise(timerStart, timerEnd, byte(timerDuration)), nil
	}
	return timer.Action{}, fmt.Errorf("unknown --action %q", timerAction)
}

// clockCmd shows the device clock
var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Show the device clock",
	Long: `Read the controller's real-time clock and compare it with this computer.
Timers fire on the device clock, so it should be kept in sync.`,
	Example: `  fluxled clock -d desk
  fluxled clock sync --all
  fluxled clock set "2026-06-01 08:00:00" -d desk`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Device clock", func(ctx context.Context, c *device.Client) (report, error) {
			t, err := c.GetClock(ctx)
			if err != nil {
				return report{}, err
			}
			drift := t.Sub(time.Now()).Round(time.Second)
			return report{
				Summary: fmt.Sprintf("%s (drift %s)", t.Format(time.DateTime), drift),
				Details: []ui.Detail{
					{Key: "Device time", Value: t.Format(time.DateTime + " Mon")},
					{Key: "Drift", Value: drift.String()},
				},
				Data: map[string]any{"time": t.Format(time.RFC3339), "drift_seconds": drift.Seconds()},
			}, nil
		})
	},
}

// clockSyncCmd sets the device clock to now
var clockSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set the device clock to this computer's time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnDevices(cmd, "Sync clock", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetClock(ctx); err != nil {
				return report{}, err
			}
			now := time.Now().Format(time.DateTime)
			return report{
				Summary: "clock set to " + now,
				Details: []ui.Detail{{Key: "Device time", Value: now}},
			}, nil
		})
	},
}

// clockSetCmd sets the device clock to a given time
var clockSetCmd = &cobra.Command{
	Use:   "set <time>",
	Short: "Set the device clock to a given time",
	Long:  `Set the device clock. The time is RFC 3339 or "YYYY-MM-DD HH:MM:SS" in local time.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := time.Parse(time.RFC3339, args[0])
		if err != nil {
			t, err = time.ParseInLocation(time.DateTime, args[0], time.Local)
		}
		if err != nil {
			return fmt.Errorf("invalid time %q", args[0])
		}
		return runOnDevices(cmd, "Set clock", func(ctx context.Context, c *device.Client) (report, error) {
			if err := c.SetClockTo(ctx, t); err != nil {
				return report{}, err
			}
			return report{
				Summary: "clock set to " + t.Format(time.DateTime),
				Details: []ui.Detail{{Key: "Device time", Value: t.Format(time.DateTime)}},
			}, nil
		})
	},
}
