// Package ui renders fluxled command output in the terminal.
//
// Components follow a "print once and exit" pattern: they build styled
// strings with Lipgloss and never take over the terminal.
//
// # Components
//
//   - Header: command banner showing operation name and parameters
//   - Result: success, warning and failure boxes with ordered details
//   - Progress: bar and per-device step list for batch commands
//   - Runner: drives header, progress and result for a batch command
//   - RenderState, RenderScanTable, RenderTimerTable: device views
//
// # Batch commands
//
// Commands addressing several devices wrap their work in a Runner:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Set Color",
//	    Command: "fluxled color red",
//	    Targets: []string{"desk", "shelf"},
//	})
//
//	err := runner.Run(func(onStep ui.StepCallback) error {
//	    onStep(1, ui.StepRunning, "")
//	    // ... do work ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil
//	})
//
// The step callback is safe for concurrent use, so it can be handed to
// device.Batch tasks directly.
//
// # Logging Integration
//
// Logging is controlled via the FLUXLED_LOG_LEVEL environment variable.
// When unset, zap logging is silent and only the curated output here is
// printed.
package ui
