// Package progressui drives the per-phase progress bar the Builder
// reports against (§2 EXPANDED ambient stack), grounded on
// kraklabs-cie's cmd/cie/progress.go: schollz/progressbar/v3 styling,
// disabled automatically when stderr isn't a TTY.
package progressui

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Config controls whether and how progress bars render.
type Config struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// Auto builds a Config from TTY detection: progress renders only when
// stderr is a terminal, matching kraklabs-cie's CI-safe default.
func Auto(quiet, noColor bool) Config {
	return Config{
		Enabled: !quiet && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

// NewPhaseBar returns a progress bar scoped to one Builder phase over a
// known item count (files for most phases). Returns nil when disabled;
// every caller must tolerate a nil *progressbar.ProgressBar (Add stays a
// no-op through the package's method set on a nil receiver).
func NewPhaseBar(cfg Config, total int, phase string) *progressbar.ProgressBar {
	if !cfg.Enabled || total <= 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(phase),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Advance increments bar by one, tolerating a nil bar so callers don't
// need to branch on Config.Enabled at every call site.
func Advance(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}
	_ = bar.Add(1)
}
