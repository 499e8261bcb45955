package protocol

import "time"

// Command opcodes
const (
	OpQueryState  = 0x81
	OpPower       = 0x71
	OpLevels      = 0x31 // persisted across power cycles
	OpLevelsTemp  = 0x41 // not persisted; also the V2 levels opcode
	OpPreset      = 0x61
	OpPresetV2    = 0x42
	OpCustom      = 0x51
	OpQueryTimers = 0x22
	OpSetTimers   = 0x21
	OpQueryClock  = 0x11
	OpSetClock    = 0x10
)

// Fixed trailer bytes used by several commands
const (
	PowerOn  = 0x23
	PowerOff = 0x24

	// Terminator marks a command as sent from the LAN
	Terminator = 0x0f
)

// WriteMode selects which channel group a levels command updates
type WriteMode byte

const (
	// WriteAll updates colors and whites together
	WriteAll WriteMode = 0x00
	// WriteColors updates only R, G and B
	WriteColors WriteMode = 0xf0
	// WriteWhites updates only the white channels
	WriteWhites WriteMode = 0x0f
)

// BuildStateQuery returns the state query command.
//
// Frame Structure:
//
//	81 8A 8B <cs>
//
// Reply: 14 byte state response (see StateResponseSize).
func BuildStateQuery() Frame {
	return Frame{Opcode: OpQueryState, Payload: []byte{0x8a, 0x8b}}
}

// BuildPower returns the power on or off command.
//
// Frame Structure:
//
//	71 23|24 0F <cs>
func BuildPower(on bool) Frame {
	state := byte(PowerOff)
	if on {
		state = PowerOn
	}
	return Frame{Opcode: OpPower, Payload: []byte{state, Terminator}}
}

// BuildLevels8 returns the 8 byte levels command used by RGB, RGBW and
// single channel controllers.
//
// Frame Structure:
//
//	31|41 R G B WW mode 0F <cs>
func BuildLevels8(r, g, b, ww byte, mode WriteMode, persist bool) Frame {
	return Frame{
		Opcode:  levelsOpcode(persist),
		Payload: []byte{r, g, b, ww, byte(mode), Terminator},
	}
}

// BuildLevels9 returns the 9 byte levels command used by controllers with
// a cool white channel.
//
// Frame Structure:
//
//	31|41 R G B WW CW mode 0F <cs>
func BuildLevels9(r, g, b, ww, cw byte, mode WriteMode, persist bool) Frame {
	return Frame{
		Opcode:  levelsOpcode(persist),
		Payload: []byte{r, g, b, ww, cw, byte(mode), Terminator},
	}
}

// BuildLevelsV2 returns the solid color command of addressable controllers.
//
// Frame Structure:
//
//	41 01 R G B 00 00 00 06 01 00 00 <cs>
func BuildLevelsV2(r, g, b byte) Frame {
	return Frame{
		Opcode:  OpLevelsTemp,
		Payload: []byte{0x01, r, g, b, 0x00, 0x00, 0x00, 0x06, 0x01, 0x00, 0x00},
	}
}

// BuildPreset returns the built-in pattern command.
//
// Frame Structure:
//
//	61 code delay 0F <cs>
func BuildPreset(code, delay byte) Frame {
	return Frame{Opcode: OpPreset, Payload: []byte{code, delay, Terminator}}
}

// BuildPresetV2 returns the effect command of addressable controllers.
//
// Frame Structure:
//
//	42 effect delay 64 <cs>
func BuildPresetV2(effect, delay byte) Frame {
	return Frame{Opcode: OpPresetV2, Payload: []byte{effect, delay, 0x64}}
}

// BuildTimerQuery returns the timer table query.
//
// Frame Structure:
//
//	22 2A 2B 0F <cs>
func BuildTimerQuery() Frame {
	return Frame{Opcode: OpQueryTimers, Payload: []byte{0x2a, 0x2b, Terminator}}
}

// BuildTimerSet returns the command that replaces the whole timer table.
//
// Frame Structure:
//
//	21 <84 byte table> 00 F0 <cs>
func BuildTimerSet(table []byte) Frame {
	payload := make([]byte, 0, len(table)+2)
	payload = append(payload, table...)
	payload = append(payload, 0x00, 0xf0)
	return Frame{Opcode: OpSetTimers, Payload: payload}
}

// BuildClockQuery returns the device clock query.
//
// Frame Structure:
//
//	11 1A 1B 0F <cs>
func BuildClockQuery() Frame {
	return Frame{Opcode: OpQueryClock, Payload: []byte{0x1a, 0x1b, Terminator}}
}

// BuildClockSet returns the command that sets the device clock to t, in
// t's own location. The device has no notion of time zones.
//
// Frame Structure:
//
//	10 14 YY MM DD hh mm ss dow 00 0F <cs>
//
// YY is the year minus 2000 and dow is the ISO weekday (Monday = 1).
func BuildClockSet(t time.Time) Frame {
	return Frame{Opcode: OpSetClock, Payload: []byte{
		0x14,
		byte(t.Year() - 2000),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
		isoWeekday(t.Weekday()),
		0x00,
		Terminator,
	}}
}

func levelsOpcode(persist bool) byte {
	if persist {
		return OpLevels
	}
	return OpLevelsTemp
}

func isoWeekday(d time.Weekday) byte {
	if d == time.Sunday {
		return 7
	}
	return byte(d)
}
