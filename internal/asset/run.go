package asset

import (
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docbake/internal/logfields"
	"git.home.luguber.info/inful/docbake/internal/metrics"
)

// RunResult summarizes a full copy run.
type RunResult struct {
	RunID    string
	Copied   int
	Bytes    int64
	Errors   []CopyError
	Duration time.Duration
}

// Failed reports whether any file could not be copied.
func (r RunResult) Failed() bool { return len(r.Errors) > 0 }

// Run copies the asset folder and then, unless disabled, the assets found in
// the content folder. Failures are collected, never returned early.
func (a *Asset) Run() RunResult {
	start := time.Now()
	a.logger.Info("Starting asset copy",
		logfields.Path(a.cfg.AssetFolder),
		logfields.Target(a.cfg.Destination))

	a.Copy()
	if !a.cfg.Content.SkipAssets {
		a.CopyAssetsFromContent(a.cfg.ContentFolder)
	}

	res := RunResult{
		RunID:    a.runID,
		Copied:   a.copied,
		Bytes:    a.bytes,
		Errors:   a.Errors(),
		Duration: time.Since(start),
	}

	a.recorder.ObserveRunDuration(res.Duration)
	outcome := metrics.OutcomeSuccess
	if res.Failed() {
		outcome = metrics.OutcomeErrors
	}
	a.recorder.IncRunOutcome(outcome)

	attrs := []any{
		logfields.Count(res.Copied),
		logfields.Bytes(res.Bytes),
		logfields.DurationMS(float64(res.Duration.Milliseconds())),
	}
	if res.Failed() {
		a.logger.Warn("Asset copy finished with errors", append(attrs, slog.Int("errors", len(res.Errors)))...)
	} else {
		a.logger.Info("Asset copy finished", attrs...)
	}
	return res
}
