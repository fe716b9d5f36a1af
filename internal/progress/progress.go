package progress

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for multi-stage analysis runs. The bar
// is re-described and re-sized whenever the stage changes, so a single
// tracker can follow extraction and then scoring.
type Tracker struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	label string
	stage string
	total int
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int) *Tracker {
	return &Tracker{bar: newBar(label, total), label: label, total: total}
}

func newBar(label string, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Update moves the bar to processed out of total for the named stage.
// A stage change resets the bar with a new description. Safe for
// concurrent use.
func (t *Tracker) Update(processed, total int, stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stage != t.stage || total != t.total {
		t.bar.Clear()
		t.bar = newBar(fmt.Sprintf("%s (%s)", t.label, stage), total)
		t.stage = stage
		t.total = total
	}
	t.bar.Set(processed)
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.mu.Lock()
	t.bar.Add(1)
	t.mu.Unlock()
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bar.Finish()
	t.bar.Clear()
}

// FinishSkipped clears the bar and prints a skip message to stderr.
func (t *Tracker) FinishSkipped(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError clears the bar and prints an error message to stderr.
func (t *Tracker) FinishError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", t.label, err)
}
