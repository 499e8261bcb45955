package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
	"github.com/muurk/fluxled/internal/state"
	"github.com/muurk/fluxled/internal/timer"
)

// RenderSwatch renders a small block filled with c
func RenderSwatch(c colors.RGB) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.String())).
		Render(strings.Repeat(" ", SwatchWidth))
}

// DescribeColor returns "#rrggbb" followed by the CSS name when c has one
func DescribeColor(c colors.RGB) string {
	if name, ok := colors.Name(c); ok {
		return c.String() + " (" + name + ")"
	}
	return c.String()
}

// StateDetails lists the fields of s worth showing for a device of desc
func StateDetails(addr string, desc models.Descriptor, s state.DeviceState) []Detail {
	power := "off"
	if s.On {
		power = "on"
	}
	details := []Detail{
		{Key: "Device", Value: addr},
		{Key: "Model", Value: fmt.Sprintf("0x%02X %s", desc.ModelNum, desc.Name)},
		{Key: "Protocol", Value: desc.Generation.String()},
		{Key: "Firmware", Value: fmt.Sprintf("%d", s.Version)},
		{Key: "Power", Value: power},
		{Key: "Mode", Value: s.Mode.String()},
	}

	switch s.Mode {
	case state.ModePresetPattern:
		name, ok := pattern.PresetName(s.PatternCode)
		if !ok {
			name = fmt.Sprintf("0x%02X", s.PatternCode)
		}
		details = append(details, Detail{Key: "Pattern", Value: name})
		details = append(details, Detail{Key: "Speed", Value: fmt.Sprintf("%d%%", s.Speed)})
	case state.ModeAddressable:
		details = append(details, Detail{Key: "Effect", Value: fmt.Sprintf("%d", s.PatternCode)})
		details = append(details, Detail{Key: "Speed", Value: fmt.Sprintf("%d%%", s.Speed)})
	case state.ModeCustomPattern:
		details = append(details, Detail{Key: "Speed", Value: fmt.Sprintf("%d%%", s.Speed)})
	case state.ModeUnknown:
		details = append(details, Detail{Key: "Raw", Value: fmt.Sprintf("% x", s.Raw[:])})
	}

	if s.Channels().HasColor() {
		rgb := s.RGB()
		details = append(details, Detail{Key: "Color", Value: RenderSwatch(rgb) + " " + DescribeColor(rgb)})
	}
	for _, c := range []models.Channel{models.WarmWhite, models.CoolWhite} {
		if v, ok := s.Level(c); ok {
			details = append(details, Detail{Key: c.String(), Value: fmt.Sprintf("%d (%d%%)", v, protocol.ByteToPercent(v))})
		}
	}
	return details
}

// RenderState renders a device state box
func RenderState(addr string, desc models.Descriptor, s state.DeviceState, width int) string {
	r := NewSuccessResult("Device state", StateDetails(addr, desc, s)...)
	return r.SetWidth(width).Render()
}

// RenderScanTable renders discovery results as a table
func RenderScanTable(results []discovery.ScanResult) string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), r.HostPort(), r.ID, r.Model, r.ModelName})
	}
	return newTable("#", "Address", "ID", "Module", "Product").Rows(rows...).Render()
}

// RenderTimerTable renders the six timer slots as a table
func RenderTimerTable(slots [timer.NumSlots]timer.Slot) string {
	rows := make([][]string, 0, len(slots))
	for _, s := range slots {
		if !s.Active {
			rows = append(rows, []string{fmt.Sprintf("%d", s.Index), "-", "-", "unset"})
			continue
		}
		when := s.Repeat.String()
		if !s.Repeating() {
			when = s.Date.String()
		}
		action := s.Action.String()
		if s.Action.Kind == timer.ActionSolidColor {
			action = RenderSwatch(s.Action.Color) + " " + action
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", s.Index),
			fmt.Sprintf("%02d:%02d", s.Hour, s.Minute),
			when,
			action,
		})
	}
	return newTable("Slot", "Time", "When", "Action").Rows(rows...).Render()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle.Padding(0, 1)
			}
			return TableCellStyle.Padding(0, 1)
		}).
		Headers(headers...)
}
