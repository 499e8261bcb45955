package protocol

import (
	"errors"
	"testing"
	"time"
)

func decodeHex(t *testing.T, s string) *Frame {
	t.Helper()
	raw := mustHex(t, s)
	raw = append(raw, Checksum(raw))
	f, err := DecodeResponse(raw, Legacy)
	if err != nil {
		t.Fatalf("DecodeResponse(%s) error = %v", s, err)
	}
	return f
}

func TestParseStateResponse(t *testing.T) {
	f := decodeHex(t, "8133236123" + "01ff0000000400f0")
	payload, err := ParseStateResponse(f)
	if err != nil {
		t.Fatalf("ParseStateResponse() error = %v", err)
	}
	if len(payload) != StatePayloadSize || payload[0] != 0x33 {
		t.Errorf("payload = % x", payload)
	}

	short := decodeHex(t, "813323")
	if _, err := ParseStateResponse(short); !errors.Is(err, ErrFrameTooShort) {
		t.Errorf("short state error = %v, want ErrFrameTooShort", err)
	}
}

func TestParsePowerResponse(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		want    bool
		wantErr bool
	}{
		{"ack on", "f07123", true, false},
		{"ack off", "0f7124", false, false},
		{"zero lead", "007123", true, false},
		{"state frame", "813324612301ff0000000400f0", false, false},
		{"garbage", "f07223", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePowerResponse(decodeHex(t, tt.hex))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("on = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimerResponse(t *testing.T) {
	body := []byte{0x0f, 0x22}
	for i := 0; i < TimerTableSize; i++ {
		body = append(body, byte(i))
	}
	body = append(body, 0x00)
	body = append(body, Checksum(body))
	if len(body) != TimerResponseSize {
		t.Fatalf("fixture is %d bytes, want %d", len(body), TimerResponseSize)
	}

	f, err := DecodeResponse(body, Legacy)
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	table, err := ParseTimerResponse(f)
	if err != nil {
		t.Fatalf("ParseTimerResponse() error = %v", err)
	}
	if len(table) != TimerTableSize || table[0] != 0 || table[83] != 83 {
		t.Errorf("table = % x", table)
	}

	if _, err := ParseTimerResponse(decodeHex(t, "0f2200")); !errors.Is(err, ErrFrameTooShort) {
		t.Errorf("short timer error = %v, want ErrFrameTooShort", err)
	}
}

func TestParseClockResponse(t *testing.T) {
	f := decodeHex(t, "0f1114180c1f173b0a0200")
	got, err := ParseClockResponse(f, time.UTC)
	if err != nil {
		t.Fatalf("ParseClockResponse() error = %v", err)
	}
	want := time.Date(2024, time.December, 31, 23, 59, 10, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("clock = %v, want %v", got, want)
	}

	bad := decodeHex(t, "0f1114180d1f173b0a0200")
	if _, err := ParseClockResponse(bad, time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("month 13 error = %v, want ErrInvalidRange", err)
	}
}
