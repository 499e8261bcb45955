package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("default logger should be silent")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	LogFrame(l, "10.0.0.5:5577", "tx", []byte{0x81, 0x8a, 0x8b, 0x96})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["hex"]; got != "818a8b96" {
		t.Errorf("hex = %v, want 818a8b96", got)
	}
}

func TestLogFrameSkipsAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	LogFrame(zap.New(core), "10.0.0.5:5577", "rx", []byte{0x00})
	if logs.Len() != 0 {
		t.Errorf("got %d entries, want 0", logs.Len())
	}
}

func TestHexDumpTruncates(t *testing.T) {
	got := HexDump(make([]byte, maxDumpBytes+10))
	if !strings.HasSuffix(got, "...") || len(got) != maxDumpBytes*2+3 {
		t.Errorf("HexDump() length = %d", len(got))
	}
	if asciiDump([]byte("ab\x00")) != "ab." {
		t.Error("asciiDump should mask non-printable bytes")
	}
}
