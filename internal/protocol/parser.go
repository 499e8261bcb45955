package protocol

import (
	"time"
)

// Legacy response sizes in bytes, checksum included
const (
	StateResponseSize    = 14
	PowerResponseSize    = 4
	TimerResponseSize    = 88
	TimerAckSize         = 4
	ClockResponseSize    = 12
	StatePayloadSize     = StateResponseSize - 2
	TimerTableSize       = 84
	clockPayloadSize     = ClockResponseSize - 2
	timerResponsePayload = TimerResponseSize - 2
)

// ParseStateResponse validates a state response and returns its 12 byte
// payload: model, power, pattern, mode, delay, R, G, B, WW, version, CW,
// color mode.
func ParseStateResponse(f *Frame) ([]byte, error) {
	if f.Opcode != OpQueryState {
		return nil, Errorf(KindFrameTooShort, "state response has opcode 0x%02x, want 0x%02x", f.Opcode, OpQueryState)
	}
	if len(f.Payload) != StatePayloadSize {
		return nil, Errorf(KindFrameTooShort, "state payload is %d bytes, want %d", len(f.Payload), StatePayloadSize)
	}
	return f.Payload, nil
}

// ParsePowerResponse extracts the power flag from a power ack
// ([F0|0F|00] 71 23|24) or from a full state response, which some V2
// firmware sends instead.
func ParsePowerResponse(f *Frame) (bool, error) {
	if f.Opcode == OpQueryState {
		payload, err := ParseStateResponse(f)
		if err != nil {
			return false, err
		}
		return payload[1] == PowerOn, nil
	}
	if len(f.Payload) != 2 || f.Payload[0] != OpPower {
		return false, Errorf(KindFrameTooShort, "unexpected power response %s", f)
	}
	return f.Payload[1] == PowerOn, nil
}

// ParseTimerResponse returns the 84 byte timer table carried by a timer
// query response (0F 22 <table> 00).
func ParseTimerResponse(f *Frame) ([]byte, error) {
	if len(f.Payload) != timerResponsePayload || f.Payload[0] != OpQueryTimers {
		return nil, Errorf(KindFrameTooShort, "timer response payload is %d bytes, want %d", len(f.Payload), timerResponsePayload)
	}
	table := make([]byte, TimerTableSize)
	copy(table, f.Payload[1:1+TimerTableSize])
	return table, nil
}

// ParseClockResponse decodes a clock response (0F 11 14 YY MM DD hh mm ss
// dow 00) into a time in loc.
func ParseClockResponse(f *Frame, loc *time.Location) (time.Time, error) {
	p := f.Payload
	if len(p) != clockPayloadSize || p[0] != OpQueryClock {
		return time.Time{}, Errorf(KindFrameTooShort, "clock payload is %d bytes, want %d", len(p), clockPayloadSize)
	}
	if loc == nil {
		loc = time.Local
	}
	year, month, day, hour, minute, sec := int(p[2])+2000, int(p[3]), int(p[4]), int(p[5]), int(p[6]), int(p[7])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, Errorf(KindInvalidRange, "device clock reports % x", p[2:8])
	}
	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc), nil
}
