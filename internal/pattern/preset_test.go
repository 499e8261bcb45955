package pattern

import (
	"bytes"
	"errors"
	"testing"

	"github.com/muurk/fluxled/internal/protocol"
)

func TestEncodePreset(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		speed   int
		want    []byte
		wantErr error
	}{
		{"first preset fastest", 0x25, 100, []byte{0x25, 0x01}, nil},
		{"last preset slowest", 0x38, 0, []byte{0x38, 0x1F}, nil},
		{"mid speed", 0x30, 50, []byte{0x30, 0x10}, nil},
		{"below range", 0x24, 50, nil, protocol.ErrInvalidRange},
		{"above range", 0x39, 50, nil, protocol.ErrInvalidRange},
		{"negative speed", 0x25, -1, nil, protocol.ErrInvalidRange},
		{"speed over 100", 0x25, 101, nil, protocol.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodePreset(tt.code, tt.speed)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodePreset() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodePreset() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestDecodePreset(t *testing.T) {
	body, err := EncodePreset(0x26, 80)
	if err != nil {
		t.Fatalf("EncodePreset() error = %v", err)
	}
	p, err := DecodePreset(body)
	if err != nil {
		t.Fatalf("DecodePreset() error = %v", err)
	}
	if p.Code != 0x26 || p.Speed < 78 || p.Speed > 82 {
		t.Errorf("DecodePreset() = %+v", p)
	}

	if _, err := DecodePreset([]byte{0x26}); !errors.Is(err, protocol.ErrMalformedPattern) {
		t.Errorf("short error = %v, want ErrMalformedPattern", err)
	}
}

func TestPresetCommand(t *testing.T) {
	f, err := PresetCommand(0x25, 100, false)
	if err != nil {
		t.Fatalf("PresetCommand() error = %v", err)
	}
	if got := protocol.EncodeFrame(f, protocol.Legacy); !bytes.Equal(got, []byte{0x61, 0x25, 0x01, 0x0f, 0x96}) {
		t.Errorf("legacy preset = % x", got)
	}

	f, err = PresetCommand(42, 100, true)
	if err != nil {
		t.Fatalf("addressable PresetCommand() error = %v", err)
	}
	if f.Opcode != protocol.OpPresetV2 || f.Payload[0] != 42 {
		t.Errorf("addressable preset = %s", &f)
	}

	if _, err := PresetCommand(0x25, 50, true); err != nil {
		t.Errorf("effect 37 should be accepted on addressable strips: %v", err)
	}
	if _, err := PresetCommand(0, 50, true); !errors.Is(err, protocol.ErrInvalidRange) {
		t.Errorf("effect 0 error = %v, want ErrInvalidRange", err)
	}
	if _, err := PresetCommand(101, 50, true); !errors.Is(err, protocol.ErrInvalidRange) {
		t.Errorf("effect 101 error = %v, want ErrInvalidRange", err)
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) != PresetMax-PresetMin+1 {
		t.Fatalf("got %d names, want %d", len(names), PresetMax-PresetMin+1)
	}
	if names[0] != "colorloop" || names[len(names)-1] != "colorjump" {
		t.Errorf("names not ordered by code: %v", names)
	}
	if code, ok := PresetByName("white_strobe"); !ok || code != 0x37 {
		t.Errorf("PresetByName(white_strobe) = 0x%02X, %v", code, ok)
	}
	if _, ok := PresetName(0x60); ok {
		t.Error("0x60 is not a preset")
	}
}
