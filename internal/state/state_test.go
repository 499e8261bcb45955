package state

import (
	"errors"
	"testing"

	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/protocol"
)

// payload builds a 12 byte state payload
func payload(model, power, code, delay, r, g, b, ww, cw byte) []byte {
	return []byte{model, power, code, 0x23, delay, r, g, b, ww, 0x04, cw, 0xF0}
}

var registry = models.NewRegistry()

func TestDecodeSolidRed(t *testing.T) {
	raw := protocol.EncodeFrame(protocol.Frame{
		Opcode:  protocol.OpQueryState,
		Payload: payload(0x33, 0x23, 0x61, 0x01, 255, 0, 0, 0, 0),
	}, protocol.Legacy)

	f, err := protocol.DecodeResponse(raw, protocol.Legacy)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	p, err := protocol.ParseStateResponse(f)
	if err != nil {
		t.Fatalf("ParseStateResponse() error = %v", err)
	}

	s, err := Decode(p, registry.Lookup(p[0]))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !s.On || s.Mode != ModeSolidColor {
		t.Errorf("state = %v, want on solid color", s)
	}
	for c, want := range map[models.Channel]byte{models.Red: 255, models.Green: 0, models.Blue: 0} {
		if got, ok := s.Level(c); !ok || got != want {
			t.Errorf("%s = %d, %v, want %d", c, got, ok, want)
		}
	}
	if _, ok := s.Level(models.WarmWhite); ok {
		t.Error("warm white should be absent on an RGB controller")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		model   byte
		verify  func(t *testing.T, s DeviceState)
	}{
		{
			name:    "power off",
			payload: payload(0x33, 0x24, 0x61, 0x01, 1, 2, 3, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.On {
					t.Error("should be off")
				}
			},
		},
		{
			name:    "cool white absent not zero",
			payload: payload(0x06, 0x23, 0x61, 0x01, 0, 0, 0, 0, 0x55),
			verify: func(t *testing.T, s DeviceState) {
				if _, ok := s.Level(models.CoolWhite); ok {
					t.Error("cool white should be absent on RGBW")
				}
				if v, ok := s.Level(models.WarmWhite); !ok || v != 0 {
					t.Errorf("warm white = %d, %v, want present zero", v, ok)
				}
			},
		},
		{
			name:    "rgbww cool white present",
			payload: payload(0x35, 0x23, 0x61, 0x01, 0, 0, 0, 0x10, 0x80),
			verify: func(t *testing.T, s DeviceState) {
				if v, ok := s.Level(models.CoolWhite); !ok || v != 0x80 {
					t.Errorf("cool white = %d, %v", v, ok)
				}
				if s.Mode != ModeWarmWhite {
					t.Errorf("mode = %v, want warm white when only whites are lit", s.Mode)
				}
			},
		},
		{
			name:    "single channel reads red slot",
			payload: payload(0x21, 0x23, 0x41, 0x01, 0xC0, 0, 0, 0x11, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeWarmWhite {
					t.Errorf("mode = %v, want warm white", s.Mode)
				}
				if v, ok := s.Level(models.WarmWhite); !ok || v != 0xC0 {
					t.Errorf("warm white = 0x%02x, %v, want 0xc0", v, ok)
				}
				if _, ok := s.Level(models.Red); ok {
					t.Error("red should be absent")
				}
			},
		},
		{
			name:    "preset with speed",
			payload: payload(0x33, 0x23, 0x25, 0x01, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModePresetPattern || s.PatternCode != 0x25 || s.Speed != 100 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "custom",
			payload: payload(0x33, 0x23, 0x60, 0x10, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeCustomPattern || s.Delay != 0x10 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "music",
			payload: payload(0x33, 0x23, 0x62, 0x01, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeMusicReactive {
					t.Errorf("mode = %v, want music", s.Mode)
				}
			},
		},
		{
			name:    "addressable effect",
			payload: payload(0xA2, 0x23, 0x07, 0x05, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeAddressable || s.PatternCode != 7 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "sunrise",
			payload: payload(0x33, 0x23, 0xA1, 0x01, 0x20, 0x10, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeSunrise || s.PatternCode != 0xA1 || s.RGB().R != 0x20 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "sunset",
			payload: payload(0x44, 0x23, 0xA2, 0x01, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeSunset || s.Mode.String() != "sunset" {
					t.Errorf("mode = %v, want sunset", s.Mode)
				}
			},
		},
		{
			name:    "sunrise code on addressable is an effect",
			payload: payload(0xA2, 0x23, 0xA1, 0x05, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeAddressable || s.PatternCode != 0xA1 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "switch",
			payload: payload(0x97, 0x23, 0x61, 0x01, 0, 0, 0, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeSwitch || !s.On || s.Channels() != models.ChannelsNone {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "unknown code keeps raw",
			payload: payload(0x33, 0x23, 0xEE, 0x01, 1, 2, 3, 0, 0),
			verify: func(t *testing.T, s DeviceState) {
				if s.Mode != ModeUnknown || s.Raw[2] != 0xEE || s.Raw[5] != 1 {
					t.Errorf("state = %+v", s)
				}
			},
		},
		{
			name:    "unknown model falls back to rgb",
			payload: payload(0xFF, 0x23, 0x61, 0x01, 9, 8, 7, 6, 5),
			verify: func(t *testing.T, s DeviceState) {
				if s.Channels() != models.ChannelsRGB || s.RGB().B != 7 {
					t.Errorf("state = %+v", s)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode(tt.payload, registry.Lookup(tt.payload[0]))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tt.verify(t, s)
		})
	}
}

func TestDecodeWrongLength(t *testing.T) {
	_, err := Decode([]byte{0x33, 0x23}, registry.Lookup(0x33))
	if !errors.Is(err, protocol.ErrFrameTooShort) {
		t.Errorf("error = %v, want ErrFrameTooShort", err)
	}
}

func TestDecodeIsAFreshValue(t *testing.T) {
	p := payload(0x33, 0x23, 0x61, 0x01, 255, 0, 0, 0, 0)
	s, _ := Decode(p, registry.Lookup(0x33))
	p[5] = 0
	if v, _ := s.Level(models.Red); v != 255 {
		t.Error("decoded state must not alias the input payload")
	}
}

func TestDeviceStateString(t *testing.T) {
	s, _ := Decode(payload(0x33, 0x23, 0x25, 0x01, 255, 0, 0, 0, 0), registry.Lookup(0x33))
	if got := s.String(); got != "on preset colorloop speed 100% red=255 green=0 blue=0" {
		t.Errorf("String() = %q", got)
	}
}
