package timer

import (
	"fmt"
	"time"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
)

const (
	// NumSlots is the fixed number of timers a controller stores
	NumSlots = 6
	// SlotSize is the width of one slot in bytes
	SlotSize = 14
	// TableSize is the width of the whole table
	TableSize = NumSlots * SlotSize

	slotActive   = 0xF0
	slotInactive = 0x0F
	turnOn       = 0xF0
	turnOff      = 0x0F
)

// ActionKind is what a timer does when it fires
type ActionKind int

const (
	ActionPowerOff ActionKind = iota
	ActionDefault
	ActionSolidColor
	ActionPreset
	ActionWarmWhite
	ActionSunrise
	ActionSunset
	ActionUnknown
)

// String returns the action name
func (k ActionKind) String() string {
	switch k {
	case ActionPowerOff:
		return "off"
	case ActionDefault:
		return "default"
	case ActionSolidColor:
		return "color"
	case ActionPreset:
		return "preset"
	case ActionWarmWhite:
		return "warm_white"
	case ActionSunrise:
		return "sunrise"
	case ActionSunset:
		return "sunset"
	default:
		return "unknown"
	}
}

// Action is the payload of a timer slot. Only the fields of Kind are used.
type Action struct {
	Kind ActionKind

	Color colors.RGB // ActionSolidColor

	Code  byte // ActionPreset, or the raw code of ActionUnknown
	Delay byte // ActionPreset, 1-31

	WarmWhite byte // ActionWarmWhite, 1-255

	Duration byte // ActionSunrise / ActionSunset, minutes
	Start    byte // brightness 0-255
	End      byte // brightness 0-255

	Raw [4]byte // ActionUnknown, bytes 9-12
}

// PowerOff returns an action that turns the device off
func PowerOff() Action { return Action{Kind: ActionPowerOff} }

// Default returns an action that turns the device on in its last state
func Default() Action { return Action{Kind: ActionDefault} }

// SolidColor returns an action that turns the device on in a color
func SolidColor(c colors.RGB) Action { return Action{Kind: ActionSolidColor, Color: c} }

// WarmWhite returns an action that turns the device on in warm white
// at a 1-100 percent level.
func WarmWhite(percent int) Action {
	return Action{Kind: ActionWarmWhite, WarmWhite: protocol.PercentToByte(percent)}
}

// Preset returns an action that starts a built-in pattern
func Preset(code byte, speed int) Action {
	return Action{Kind: ActionPreset, Code: code, Delay: protocol.SpeedToDelay(speed)}
}

// Sunrise returns an action that fades from start to end percent over
// duration minutes.
func Sunrise(startPercent, endPercent int, duration byte) Action {
	return Action{Kind: ActionSunrise, Duration: duration,
		Start: protocol.PercentToByte(startPercent), End: protocol.PercentToByte(endPercent)}
}

// Sunset is the fading out counterpart of Sunrise
func Sunset(startPercent, endPercent int, duration byte) Action {
	a := Sunrise(startPercent, endPercent, duration)
	a.Kind = ActionSunset
	return a
}

// Date is a calendar date for one-shot timers
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// IsZero reports whether no date is set
func (d Date) IsZero() bool {
	return d == Date{}
}

// schedulable reports whether the slot bytes can carry d
func (d Date) schedulable() bool {
	return d.Year >= 2000 && d.Year <= 2255 && d.Month >= 1 && d.Month <= 12 && d.Day >= 1 && d.Day <= 31
}

// DateOf returns the date part of t
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String renders the date as YYYY-MM-DD
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Slot is one timer. A repeating slot sets Repeat and leaves Date zero; a
// one-shot slot sets Date and leaves Repeat zero.
type Slot struct {
	Index  int // 1-6
	Active bool
	Repeat Weekdays
	Date   Date
	Hour   int
	Minute int
	Action Action
}

// Repeating reports whether the slot fires on weekdays rather than a date
func (s Slot) Repeating() bool {
	return s.Repeat != 0
}

// String renders the slot for display
func (s Slot) String() string {
	if !s.Active {
		return fmt.Sprintf("%d: unset", s.Index)
	}
	when := s.Repeat.String()
	if !s.Repeating() {
		when = "once " + s.Date.String()
	}
	return fmt.Sprintf("%d: %02d:%02d %s %s", s.Index, s.Hour, s.Minute, when, s.Action)
}

// String describes the action for display
func (a Action) String() string {
	switch a.Kind {
	case ActionSolidColor:
		return "color " + a.Color.String()
	case ActionWarmWhite:
		return fmt.Sprintf("warm white %d%%", protocol.ByteToPercent(a.WarmWhite))
	case ActionPreset:
		name, ok := pattern.PresetName(a.Code)
		if !ok {
			name = fmt.Sprintf("0x%02X", a.Code)
		}
		return fmt.Sprintf("preset %s speed %d%%", name, protocol.DelayToSpeed(a.Delay))
	case ActionSunrise, ActionSunset:
		return fmt.Sprintf("%s %d min %d%% -> %d%%", a.Kind, a.Duration,
			protocol.ByteToPercent(a.Start), protocol.ByteToPercent(a.End))
	case ActionUnknown:
		return fmt.Sprintf("code 0x%02X", a.Code)
	default:
		return a.Kind.String()
	}
}

// EncodeTable serializes all six slots in index order. Inactive slots are
// written as 0F followed by zeros.
func EncodeTable(slots [NumSlots]Slot) ([]byte, error) {
	out := make([]byte, 0, TableSize)
	for i, s := range slots {
		if s.Index != 0 && s.Index != i+1 {
			return nil, protocol.Errorf(protocol.KindInvalidRange, "slot at position %d has index %d", i+1, s.Index)
		}
		b, err := EncodeSlot(s)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
		out = append(out, b[:]...)
	}
	return out, nil
}

// DecodeTable parses a complete table. Anything but exactly TableSize bytes
// is rejected.
func DecodeTable(b []byte) ([NumSlots]Slot, error) {
	var slots [NumSlots]Slot
	if len(b) != TableSize {
		return slots, protocol.Errorf(protocol.KindMalformedTimerTable, "table is %d bytes, want %d", len(b), TableSize)
	}
	for i := range slots {
		slots[i] = DecodeSlot(b[i*SlotSize:(i+1)*SlotSize], i+1)
	}
	return slots, nil
}

// EncodeSlot serializes one slot
func EncodeSlot(s Slot) ([SlotSize]byte, error) {
	var b [SlotSize]byte
	if !s.Active {
		b[0] = slotInactive
		return b, nil
	}
	if err := validate(s); err != nil {
		return b, err
	}

	b[0] = slotActive
	if !s.Repeating() {
		b[1] = byte(s.Date.Year - 2000)
		b[2] = byte(s.Date.Month)
		b[3] = byte(s.Date.Day)
	}
	b[4] = byte(s.Hour)
	b[5] = byte(s.Minute)
	b[7] = byte(s.Repeat)

	a := s.Action
	if a.Kind == ActionPowerOff {
		b[13] = turnOff
		return b, nil
	}
	b[13] = turnOn

	switch a.Kind {
	case ActionDefault:
	case ActionSolidColor:
		b[8] = pattern.CodeSolidColor
		b[9], b[10], b[11] = a.Color.R, a.Color.G, a.Color.B
	case ActionWarmWhite:
		b[8] = pattern.CodeSolidColor
		b[12] = a.WarmWhite
	case ActionPreset:
		b[8] = a.Code
		b[9] = a.Delay
	case ActionSunrise, ActionSunset:
		b[8] = pattern.CodeSunrise
		if a.Kind == ActionSunset {
			b[8] = pattern.CodeSunset
		}
		b[9], b[10], b[11] = a.Duration, a.Start, a.End
		b[12] = a.End
	case ActionUnknown:
		b[8] = a.Code
		copy(b[9:13], a.Raw[:])
	}
	return b, nil
}

// DecodeSlot parses one 14 byte slot. Inactive slots decode to their index
// only.
//
// Decoded slots always re-encode: the unused mask bit is dropped, a preset
// delay is clamped to 1-31, and an active slot that can never fire (bad
// time, or neither a repeat mask nor a valid date) decodes as inactive.
func DecodeSlot(b []byte, index int) Slot {
	s := Slot{Index: index}
	if len(b) < SlotSize || b[0] != slotActive {
		return s
	}

	hour, minute := int(b[4]), int(b[5])
	repeat := Weekdays(b[7]) &^ 0x01
	var date Date
	if repeat == 0 {
		date = Date{Year: 2000 + int(b[1]), Month: time.Month(b[2]), Day: int(b[3])}
	}
	if hour > 23 || minute > 59 || (repeat == 0 && !date.schedulable()) {
		return s
	}

	s.Active = true
	s.Hour = hour
	s.Minute = minute
	s.Repeat = repeat
	s.Date = date

	if b[13] != turnOn {
		s.Action = PowerOff()
		return s
	}

	code := b[8]
	switch {
	case code == 0x00:
		s.Action = Default()
	case code == pattern.CodeSolidColor && b[12] != 0:
		s.Action = Action{Kind: ActionWarmWhite, WarmWhite: b[12]}
	case code == pattern.CodeSolidColor:
		s.Action = SolidColor(colors.RGB{R: b[9], G: b[10], B: b[11]})
	case pattern.ValidPreset(code):
		delay := min(max(b[9], protocol.MinDelay), protocol.MaxDelay)
		s.Action = Action{Kind: ActionPreset, Code: code, Delay: delay}
	case code == pattern.CodeSunrise || code == pattern.CodeSunset:
		kind := ActionSunrise
		if code == pattern.CodeSunset {
			kind = ActionSunset
		}
		s.Action = Action{Kind: kind, Duration: b[9], Start: b[10], End: b[11]}
	default:
		s.Action = Action{Kind: ActionUnknown, Code: code}
		copy(s.Action.Raw[:], b[9:13])
	}
	return s
}

func validate(s Slot) error {
	if s.Hour < 0 || s.Hour > 23 {
		return protocol.Errorf(protocol.KindInvalidRange, "hour %d outside 0-23", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return protocol.Errorf(protocol.KindInvalidRange, "minute %d outside 0-59", s.Minute)
	}
	if !s.Repeat.Valid() {
		return protocol.Errorf(protocol.KindInvalidRange, "repeat mask 0x%02X sets the unused bit", byte(s.Repeat))
	}

	switch {
	case s.Repeating() && !s.Date.IsZero():
		return protocol.Errorf(protocol.KindInvalidRange, "slot sets both a repeat mask and a date")
	case !s.Repeating() && s.Date.IsZero():
		return protocol.Errorf(protocol.KindInvalidRange, "slot needs a repeat mask or a date")
	case !s.Repeating() && !s.Date.schedulable():
		return protocol.Errorf(protocol.KindInvalidRange, "date %s not representable", s.Date)
	}

	a := s.Action
	switch a.Kind {
	case ActionPowerOff, ActionDefault, ActionSolidColor:
	case ActionWarmWhite:
		if a.WarmWhite == 0 {
			return protocol.Errorf(protocol.KindInvalidRange, "warm white level must be above zero")
		}
	case ActionPreset:
		if !pattern.ValidPreset(a.Code) {
			return protocol.Errorf(protocol.KindInvalidRange, "preset 0x%02X outside 0x%02X-0x%02X", a.Code, pattern.PresetMin, pattern.PresetMax)
		}
		if a.Delay < protocol.MinDelay || a.Delay > protocol.MaxDelay {
			return protocol.Errorf(protocol.KindInvalidRange, "delay %d outside %d-%d", a.Delay, protocol.MinDelay, protocol.MaxDelay)
		}
	case ActionSunrise, ActionSunset:
	case ActionUnknown:
		if a.Code == 0x00 || a.Code == pattern.CodeSolidColor || pattern.ValidPreset(a.Code) ||
			a.Code == pattern.CodeSunrise || a.Code == pattern.CodeSunset {
			return protocol.Errorf(protocol.KindInvalidRange, "code 0x%02X has a dedicated action kind", a.Code)
		}
	default:
		return protocol.Errorf(protocol.KindInvalidRange, "unknown action kind %d", int(a.Kind))
	}
	return nil
}
