package metrics

import "time"

// SourceLabel identifies which copy operation handled a file.
type SourceLabel string

const (
	SourceAssets  SourceLabel = "assets"
	SourceContent SourceLabel = "content"
	SourceSingle  SourceLabel = "single"
)

// OutcomeLabel classifies a finished copy run.
type OutcomeLabel string

const (
	OutcomeSuccess OutcomeLabel = "success"
	OutcomeErrors  OutcomeLabel = "errors"
)

// Recorder defines observability hooks for copy runs. Implementations must
// tolerate being called from the single goroutine that owns a run.
type Recorder interface {
	IncFileCopied(source SourceLabel)
	IncFileSkipped(source SourceLabel)
	IncCopyError(source SourceLabel)
	AddBytesCopied(n int64)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome OutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFileCopied(SourceLabel)        {}
func (NoopRecorder) IncFileSkipped(SourceLabel)       {}
func (NoopRecorder) IncCopyError(SourceLabel)         {}
func (NoopRecorder) AddBytesCopied(int64)             {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)       {}
