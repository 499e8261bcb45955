package pattern

import (
	"sort"

	"github.com/muurk/fluxled/internal/protocol"
)

// Pattern codes reported in the state response and used by timers
const (
	PresetMin = 0x25
	PresetMax = 0x38

	CodeCustom      = 0x60
	CodeSolidColor  = 0x61
	CodeWhite       = 0x41
	CodeMusic       = 0x62
	CodeMusicLegacy = 0x63
	CodeSunrise     = 0xA1
	CodeSunset      = 0xA2

	// Addressable strips number their effects 1-100
	AddressableMin = 1
	AddressableMax = 100
)

var presetNames = map[byte]string{
	0x25: "colorloop",
	0x26: "red_fade",
	0x27: "green_fade",
	0x28: "blue_fade",
	0x29: "yellow_fade",
	0x2A: "cyan_fade",
	0x2B: "purple_fade",
	0x2C: "white_fade",
	0x2D: "rg_cross_fade",
	0x2E: "rb_cross_fade",
	0x2F: "gb_cross_fade",
	0x30: "colorstrobe",
	0x31: "red_strobe",
	0x32: "green_strobe",
	0x33: "blue_strobe",
	0x34: "yellow_strobe",
	0x35: "cyan_strobe",
	0x36: "purple_strobe",
	0x37: "white_strobe",
	0x38: "colorjump",
}

// Preset is a built-in pattern selection
type Preset struct {
	Code  byte
	Speed int
}

// ValidPreset reports whether code is a built-in preset
func ValidPreset(code byte) bool {
	return code >= PresetMin && code <= PresetMax
}

// PresetName returns the name of a built-in preset
func PresetName(code byte) (string, bool) {
	name, ok := presetNames[code]
	return name, ok
}

// PresetByName returns the code of a named preset
func PresetByName(name string) (byte, bool) {
	for code, n := range presetNames {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// PresetNames returns every preset name ordered by code
func PresetNames() []string {
	codes := make([]int, 0, len(presetNames))
	for code := range presetNames {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	names := make([]string, len(codes))
	for i, code := range codes {
		names[i] = presetNames[byte(code)]
	}
	return names
}

// EncodePreset validates a preset selection and returns its two byte
// form: code, delay.
func EncodePreset(code byte, speed int) ([]byte, error) {
	if !ValidPreset(code) {
		return nil, protocol.Errorf(protocol.KindInvalidRange, "preset 0x%02X outside 0x%02X-0x%02X", code, PresetMin, PresetMax)
	}
	if err := checkSpeed(speed); err != nil {
		return nil, err
	}
	return []byte{code, protocol.SpeedToDelay(speed)}, nil
}

// DecodePreset is the inverse of EncodePreset
func DecodePreset(b []byte) (Preset, error) {
	if len(b) != 2 {
		return Preset{}, protocol.Errorf(protocol.KindMalformedPattern, "preset is %d bytes, want 2", len(b))
	}
	if !ValidPreset(b[0]) {
		return Preset{}, protocol.Errorf(protocol.KindInvalidRange, "preset 0x%02X outside 0x%02X-0x%02X", b[0], PresetMin, PresetMax)
	}
	return Preset{Code: b[0], Speed: protocol.DelayToSpeed(b[1])}, nil
}

// PresetCommand builds the device command selecting a preset. Addressable
// strips take effect ids 1-100 instead of the legacy preset codes.
func PresetCommand(code byte, speed int, addressable bool) (protocol.Frame, error) {
	if !addressable {
		body, err := EncodePreset(code, speed)
		if err != nil {
			return protocol.Frame{}, err
		}
		return protocol.BuildPreset(body[0], body[1]), nil
	}

	if code < AddressableMin || code > AddressableMax {
		return protocol.Frame{}, protocol.Errorf(protocol.KindInvalidRange, "effect %d outside %d-%d", code, AddressableMin, AddressableMax)
	}
	if err := checkSpeed(speed); err != nil {
		return protocol.Frame{}, err
	}
	return protocol.BuildPresetV2(code, protocol.SpeedToDelay(speed)), nil
}

func checkSpeed(speed int) error {
	if speed < 0 || speed > 100 {
		return protocol.Errorf(protocol.KindInvalidRange, "speed %d outside 0-100", speed)
	}
	return nil
}
