package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muurk/fluxled/internal/colors"
	"github.com/muurk/fluxled/internal/discovery"
	"github.com/muurk/fluxled/internal/models"
	"github.com/muurk/fluxled/internal/state"
	"github.com/muurk/fluxled/internal/timer"
)

const testWidth = 90

func TestHeaderKeepsParamOrder(t *testing.T) {
	out := NewHeader("Device state", "fluxled state",
		Detail{Key: "Device", Value: "10.0.0.5:5577"},
		Detail{Key: "Timeout", Value: "5s"},
	).SetWidth(testWidth).Render()

	if !strings.Contains(out, "DEVICE STATE") {
		t.Errorf("header missing uppercase title:\n%s", out)
	}
	device := strings.Index(out, "10.0.0.5:5577")
	timeout := strings.Index(out, "5s")
	if device < 0 || timeout < 0 || device > timeout {
		t.Errorf("params out of order:\n%s", out)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Color set", Detail{Key: "Color", Value: "#ff0000"}),
			want:   []string{"SUCCESS", "Color set", "#ff0000"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Query failed", errors.New("connection refused"), []string{"Check the address"}),
			want:   []string{"FAILED", "connection refused", "Troubleshooting", "Check the address"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Partially applied").AddDetail("Failed", "1"),
			want:   []string{"WARNING", "Partially applied", "Failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.SetWidth(testWidth).Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestProgressCounts(t *testing.T) {
	p := NewProgress("Applying", []string{"desk", "shelf", "porch"}).SetWidth(testWidth)
	p.UpdateStep(1, StepComplete, "")
	p.UpdateStep(2, StepFailed, "timeout")
	p.UpdateStep(3, StepRunning, "")
	p.UpdateStep(9, StepComplete, "") // out of range, ignored

	finished, failed := p.Counts()
	if finished != 2 || failed != 1 {
		t.Errorf("Counts() = %d, %d, want 2, 1", finished, failed)
	}
	if p.Percent < 0.66 || p.Percent > 0.67 {
		t.Errorf("Percent = %f, want 2/3", p.Percent)
	}

	out := p.Render()
	for _, w := range []string{"desk", "shelf", "porch", "(timeout)", "[2/3]"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestRunnerReportsEachTarget(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:   "Set Color",
		Command: "fluxled color red",
		Targets: []string{"desk", "shelf"},
		Output:  &buf,
		Width:   testWidth,
	})

	err := r.Run(func(onStep StepCallback) error {
		var wg sync.WaitGroup
		for i := 1; i <= 2; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if n == 2 {
					onStep(n, StepFailed, "unreachable")
					return
				}
				onStep(n, StepComplete, "")
			}(i)
		}
		wg.Wait()
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	for _, w := range []string{"SET COLOR", "desk", "shelf", "(unreachable)", "WARNING"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
	if _, failed := r.Progress().Counts(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestRunnerReturnsOperationError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{Title: "Set Color", Targets: []string{"desk"}, Output: &buf, Width: testWidth})

	want := errors.New("boom")
	if err := r.Run(func(StepCallback) error { return want }); !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}
	if !strings.Contains(buf.String(), "FAILED") {
		t.Errorf("expected failure box:\n%s", buf.String())
	}
}

func TestStateDetails(t *testing.T) {
	desc := models.NewRegistry().Lookup(0x44)
	s, err := state.Decode([]byte{0x44, 0x23, 0x61, 0x23, 0x10, 0xff, 0x00, 0x00, 0x80, 0x04, 0x00, 0x0f}, desc)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	details := StateDetails("10.0.0.5:5577", desc, s)
	got := make(map[string]string, len(details))
	for _, d := range details {
		got[d.Key] = d.Value
	}

	if details[0].Key != "Device" {
		t.Errorf("first detail = %q, want Device", details[0].Key)
	}
	if got["Power"] != "on" {
		t.Errorf("Power = %q, want on", got["Power"])
	}
	if got["Mode"] != s.Mode.String() {
		t.Errorf("Mode = %q, want %q", got["Mode"], s.Mode)
	}
	if !strings.Contains(got["Color"], "#ff0000 (red)") {
		t.Errorf("Color = %q, want red", got["Color"])
	}
	if _, ok := got[models.CoolWhite.String()]; ok {
		t.Error("RGBW controller should not list cool white")
	}
}

func TestRenderScanTable(t *testing.T) {
	out := RenderScanTable([]discovery.ScanResult{{
		Address:      "10.0.0.5",
		Port:         5577,
		ID:           "ACCF23000001",
		Model:        "AK001-ZJ2145",
		ModelName:    "Smart Bulb",
		DiscoveredAt: time.Now(),
	}})
	for _, w := range []string{"Address", "10.0.0.5:5577", "ACCF23000001", "AK001-ZJ2145"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestRenderTimerTable(t *testing.T) {
	var slots [timer.NumSlots]timer.Slot
	for i := range slots {
		slots[i].Index = i + 1
	}
	slots[0] = timer.Slot{
		Index:  1,
		Active: true,
		Repeat: timer.Monday | timer.Friday,
		Hour:   7,
		Minute: 30,
		Action: timer.SolidColor(colors.RGB{R: 255}),
	}

	out := RenderTimerTable(slots)
	for _, w := range []string{"07:30", "#ff0000", "unset"} {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}
