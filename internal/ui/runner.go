package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RunnerConfig holds configuration for a multi-device command
type RunnerConfig struct {
	Title   string   // Command title (e.g., "Set Color")
	Command string   // Full command (e.g., "fluxled color red")
	Params  []Detail // Parameters to display in header
	Targets []string // One step per target, in display order
	Output  io.Writer
	Width   int // Zero means the terminal width
}

// Runner orchestrates header, progress and result output for a command
// applied to several devices at once.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer

	mu sync.Mutex
}

// NewRunner creates a runner for the given targets
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}

	header := NewHeader(config.Title, config.Command, config.Params...).SetWidth(width)
	label := fmt.Sprintf("Applying to %d device(s)", len(config.Targets))
	return &Runner{
		config:   config,
		header:   header,
		progress: NewProgress(label, config.Targets).SetWidth(width),
		output:   config.Output,
	}
}

// Operation does the work, reporting each target through onStep
type Operation func(onStep StepCallback) error

// Run prints the header, executes op and prints the per-target summary.
// Step lines print as targets finish, in completion order.
func (r *Runner) Run(op Operation) error {
	start := time.Now()
	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)
	_, _ = fmt.Fprintln(r.output, ProgressLabelStyle.Render(r.progress.Label))
	_, _ = fmt.Fprintln(r.output)

	err := op(r.onStep)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.output)
	_, _ = fmt.Fprintln(r.output, r.progress.RenderBar())
	_, _ = fmt.Fprintln(r.output)

	finished, failed := r.progress.Counts()
	details := []Detail{
		{Key: "Devices", Value: fmt.Sprintf("%d", len(r.progress.Steps))},
		{Key: "Succeeded", Value: fmt.Sprintf("%d", finished-failed)},
		{Key: "Failed", Value: fmt.Sprintf("%d", failed)},
		{Key: "Duration", Value: time.Since(start).Round(time.Millisecond).String()},
	}

	var res *Result
	switch {
	case err != nil:
		res = NewFailureResult(r.config.Title, err, nil)
		res.Details = details
	case failed > 0:
		res = NewWarningResult(r.config.Title+" partially applied", details...)
	default:
		res = NewSuccessResult(r.config.Title, details...)
	}
	_, _ = fmt.Fprintln(r.output, res.SetWidth(r.progress.Width).Render())
	return err
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.UpdateStep(stepNumber, status, message)
	if status.Finished() && stepNumber >= 1 && stepNumber <= len(r.progress.Steps) {
		_, _ = fmt.Fprintln(r.output, r.progress.RenderStep(r.progress.Steps[stepNumber-1]))
	}
}

// Progress returns the runner's progress tracker
func (r *Runner) Progress() *Progress {
	return r.progress
}
