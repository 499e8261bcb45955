package state

import (
	"fmt"
	"strings"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/pattern"
	"github.com/muurk/fluxled/internal/protocol"
)

// Mode is the operating mode reported by a device
type Mode int

const (
	ModeUnknown Mode = iota
	ModeSolidColor
	ModeWarmWhite
	ModePresetPattern
	ModeCustomPattern
	ModeAddressable
	ModeMusicReactive
	ModeSwitch
	ModeSunrise
	ModeSunset
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeSolidColor:
		return "color"
	case ModeWarmWhite:
		return "warm_white"
	case ModePresetPattern:
		return "preset"
	case ModeCustomPattern:
		return "custom"
	case ModeAddressable:
		return "addressable"
	case ModeMusicReactive:
		return "music"
	case ModeSwitch:
		return "switch"
	case ModeSunrise:
		return "sunrise"
	case ModeSunset:
		return "sunset"
	default:
		return "unknown"
	}
}

// state payload offsets (response minus the 0x81 head and checksum)
const (
	offModel   = 0
	offPower   = 1
	offPattern = 2
	offDelay   = 4
	offRed     = 5
	offGreen   = 6
	offBlue    = 7
	offWarm    = 8
	offVersion = 9
	offCool    = 10
)

// DeviceState is one decoded state response. It is a value: a fresh query
// produces a fresh DeviceState, nothing patches one in place.
type DeviceState struct {
	Model   byte
	On      bool
	Mode    Mode
	Version byte

	// PatternCode is the raw pattern byte; for presets and addressable
	// effects it is the active effect.
	PatternCode byte
	// Delay and Speed are meaningful in preset, custom and addressable modes
	Delay byte
	Speed int

	levels  [5]byte
	present models.ChannelSet

	// Raw is the undecoded 12 byte payload
	Raw [protocol.StatePayloadSize]byte
}

// Level returns the 0-255 intensity of c and whether the device has it
func (s DeviceState) Level(c models.Channel) (byte, bool) {
	if !s.present.Has(c) {
		return 0, false
	}
	return s.levels[c], true
}

// Channels returns the channels this state carries levels for
func (s DeviceState) Channels() models.ChannelSet {
	return s.present
}

// RGB returns the color channels, zero for absent ones
func (s DeviceState) RGB() colors.RGB {
	return colors.RGB{R: s.levels[models.Red], G: s.levels[models.Green], B: s.levels[models.Blue]}
}

// String renders the state on one line
func (s DeviceState) String() string {
	var b strings.Builder
	power := "off"
	if s.On {
		power = "on"
	}
	fmt.Fprintf(&b, "%s %s", power, s.Mode)
	switch s.Mode {
	case ModePresetPattern:
		name, ok := pattern.PresetName(s.PatternCode)
		if !ok {
			name = fmt.Sprintf("0x%02X", s.PatternCode)
		}
		fmt.Fprintf(&b, " %s speed %d%%", name, s.Speed)
	case ModeAddressable:
		fmt.Fprintf(&b, " effect %d speed %d%%", s.PatternCode, s.Speed)
	case ModeCustomPattern:
		fmt.Fprintf(&b, " speed %d%%", s.Speed)
	case ModeUnknown:
		fmt.Fprintf(&b, " raw % x", s.Raw[:])
	}
	for _, c := range models.AllChannels {
		if v, ok := s.Level(c); ok {
			fmt.Fprintf(&b, " %s=%d", c, v)
		}
	}
	return b.String()
}

// Decode interprets a 12 byte state payload (see protocol.ParseStateResponse)
// using desc. Channels desc lacks are left absent. Pattern codes nothing
// recognizes decode to ModeUnknown with Raw kept.
func Decode(payload []byte, desc models.Descriptor) (DeviceState, error) {
	var s DeviceState
	if len(payload) != protocol.StatePayloadSize {
		return s, protocol.Errorf(protocol.KindFrameTooShort, "state payload is %d bytes, want %d", len(payload), protocol.StatePayloadSize)
	}
	copy(s.Raw[:], payload)

	s.Model = payload[offModel]
	s.On = payload[offPower] == protocol.PowerOn
	s.PatternCode = payload[offPattern]
	s.Version = payload[offVersion]
	s.present = desc.Channels

	readLevels(&s, payload, desc)
	s.Mode = decodeMode(&s, payload, desc)
	switch s.Mode {
	case ModePresetPattern, ModeCustomPattern, ModeAddressable:
		s.Delay = payload[offDelay]
		s.Speed = protocol.DelayToSpeed(s.Delay)
	}
	return s, nil
}

func readLevels(s *DeviceState, p []byte, desc models.Descriptor) {
	slots := [5]int{offRed, offGreen, offBlue, offWarm, offCool}
	if desc.WhiteInRedSlot {
		slots[models.WarmWhite] = offRed
	}
	for _, c := range models.AllChannels {
		if desc.Channels.Has(c) {
			s.levels[c] = p[slots[c]]
		}
	}
}

func decodeMode(s *DeviceState, p []byte, desc models.Descriptor) Mode {
	if desc.Switch {
		return ModeSwitch
	}

	code := p[offPattern]
	switch {
	case code == pattern.CodeSolidColor || code == pattern.CodeWhite:
		if desc.WhiteOnly() {
			return ModeWarmWhite
		}
		rgb := s.RGB()
		if desc.Channels.HasWhite() && rgb.IsBlack() && (s.levels[models.WarmWhite] != 0 || s.levels[models.CoolWhite] != 0) {
			return ModeWarmWhite
		}
		return ModeSolidColor
	case code == pattern.CodeCustom:
		return ModeCustomPattern
	case code == pattern.CodeMusic || code == pattern.CodeMusicLegacy:
		return ModeMusicReactive
	case pattern.ValidPreset(code):
		return ModePresetPattern
	case desc.Addressable:
		return ModeAddressable
	case code == pattern.CodeSunrise:
		return ModeSunrise
	case code == pattern.CodeSunset:
		return ModeSunset
	}
	return ModeUnknown
}
