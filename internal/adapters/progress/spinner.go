package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// SpinnerProgress shows the current mock stage behind a spinner and keeps a
// trail of completed stages
type SpinnerProgress struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     string
	Message   string
	StartTime time.Time
	EndTime   time.Time
}

var stageNames = map[string]string{
	usecase.StageCheckingCode: "Checking code",
	usecase.StageInstalling:   "Installing",
	usecase.StageWritingSlot:  "Writing storage",
	usecase.StagePublishing:   "Publishing",
}

// NewSpinnerProgress creates a spinner writing to stderr
func NewSpinnerProgress() *SpinnerProgress {
	return newSpinnerProgress(os.Stderr)
}

func newSpinnerProgress(out io.Writer) *SpinnerProgress {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &SpinnerProgress{spinner: s, out: out}
}

// IsTerminal reports whether stderr is attached to a terminal
func IsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// OnProgress records the stage and updates the spinner
func (r *SpinnerProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	now := time.Now()
	if n := len(r.stages); n > 0 && r.stages[n-1].EndTime.IsZero() {
		r.stages[n-1].EndTime = now
	}
	r.stages = append(r.stages, stageInfo{Stage: event.Stage, Message: event.Message, StartTime: now})

	if !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}

	r.spinner.Suffix = " " + r.display()
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints a message, pausing the spinner around it
func (r *SpinnerProgress) Info(message string) {
	r.printPaused(color.New(color.FgCyan), message)
}

// Error prints an error message, pausing the spinner around it
func (r *SpinnerProgress) Error(message string) {
	r.printPaused(color.New(color.FgRed), message)
}

// Stop halts the spinner
func (r *SpinnerProgress) Stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerProgress) printPaused(c *color.Color, message string) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, message)
	if wasActive {
		r.spinner.Start()
	}
}

// display renders "✓ Checking code → ● Installing (1s): message"
func (r *SpinnerProgress) display() string {
	var parts []string
	for i, stage := range r.stages {
		name, ok := stageNames[stage.Stage]
		if !ok {
			name = stage.Stage
		}
		// Collapse consecutive repeats of a stage
		if i+1 < len(r.stages) && r.stages[i+1].Stage == stage.Stage {
			continue
		}
		if stage.EndTime.IsZero() {
			elapsed := time.Since(stage.StartTime).Round(time.Second)
			parts = append(parts, fmt.Sprintf("● %s (%s)", color.New(color.FgYellow).Sprint(name), elapsed))
		} else {
			parts = append(parts, fmt.Sprintf("✓ %s", color.New(color.FgGreen).Sprint(name)))
		}
	}

	out := strings.Join(parts, " → ")
	if n := len(r.stages); n > 0 && r.stages[n-1].Message != "" {
		out += ": " + r.stages[n-1].Message
	}
	return out
}

var _ usecase.ProgressSink = (*SpinnerProgress)(nil)
