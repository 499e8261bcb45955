package protocol

import (
	"bytes"
	"testing"
	"time"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  string
	}{
		{"state query", BuildStateQuery(), "818a8b96"},
		{"power on", BuildPower(true), "71230fa3"},
		{"power off", BuildPower(false), "71240fa4"},
		{"levels 8 red", BuildLevels8(0xff, 0, 0, 0, WriteColors, true), "31ff000000f00f2f"},
		{"levels 8 volatile", BuildLevels8(0xff, 0, 0, 0, WriteColors, false), "41ff000000f00f3f"},
		{"levels 9 cool white", BuildLevels9(0, 0, 0, 0, 0x80, WriteWhites, true), "3100000000800f0fcf"},
		{"levels v2 red", BuildLevelsV2(0xff, 0, 0), "4101ff00000000000601000048"},
		{"preset", BuildPreset(0x25, 0x10), "6125100fa5"},
		{"preset v2", BuildPresetV2(0x01, 0x10), "42011064b7"},
		{"timer query", BuildTimerQuery(), "222a2b0f86"},
		{"clock query", BuildClockQuery(), "111a1b0f55"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeFrame(tt.frame, Legacy)
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Errorf("encoded = % x, want % x", got, want)
			}
		})
	}
}

func TestBuildTimerSet(t *testing.T) {
	table := make([]byte, TimerTableSize)
	f := BuildTimerSet(table)
	if f.Opcode != OpSetTimers {
		t.Errorf("opcode = 0x%02x, want 0x%02x", f.Opcode, OpSetTimers)
	}
	if len(f.Payload) != TimerTableSize+2 {
		t.Fatalf("payload = %d bytes, want %d", len(f.Payload), TimerTableSize+2)
	}
	if tail := f.Payload[TimerTableSize:]; !bytes.Equal(tail, []byte{0x00, 0xf0}) {
		t.Errorf("trailer = % x, want 00 f0", tail)
	}
}

func TestBuildClockSet(t *testing.T) {
	// 2024-03-10 is a Sunday
	ts := time.Date(2024, time.March, 10, 17, 30, 5, 0, time.UTC)
	f := BuildClockSet(ts)
	want := []byte{0x14, 24, 3, 10, 17, 30, 5, 7, 0x00, 0x0f}
	if f.Opcode != OpSetClock || !bytes.Equal(f.Payload, want) {
		t.Errorf("BuildClockSet() = %s, want payload % x", &f, want)
	}

	monday := BuildClockSet(ts.AddDate(0, 0, 1))
	if monday.Payload[7] != 1 {
		t.Errorf("monday weekday byte = %d, want 1", monday.Payload[7])
	}
}
