package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	filesCopied  *prom.CounterVec
	filesSkipped *prom.CounterVec
	copyErrors   *prom.CounterVec
	bytesCopied  prom.Counter
	runDuration  prom.Histogram
	runOutcomes  *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg
// (a fresh registry when reg is nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		filesCopied: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbake",
			Name:      "files_copied_total",
			Help:      "Files copied to the destination by source",
		}, []string{"source"}),
		filesSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbake",
			Name:      "files_skipped_total",
			Help:      "Entries skipped by the ignore policy by source",
		}, []string{"source"}),
		copyErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbake",
			Name:      "copy_errors_total",
			Help:      "Per-file copy failures by source",
		}, []string{"source"}),
		bytesCopied: prom.NewCounter(prom.CounterOpts{
			Namespace: "docbake",
			Name:      "bytes_copied_total",
			Help:      "Bytes written to the destination",
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docbake",
			Name:      "run_duration_seconds",
			Help:      "Duration of complete copy runs",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docbake",
			Name:      "run_outcomes_total",
			Help:      "Copy runs by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.filesCopied, pr.filesSkipped, pr.copyErrors, pr.bytesCopied, pr.runDuration, pr.runOutcomes)
	return pr
}

func (p *PrometheusRecorder) IncFileCopied(source SourceLabel) {
	if p == nil {
		return
	}
	p.filesCopied.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusRecorder) IncFileSkipped(source SourceLabel) {
	if p == nil {
		return
	}
	p.filesSkipped.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusRecorder) IncCopyError(source SourceLabel) {
	if p == nil {
		return
	}
	p.copyErrors.WithLabelValues(string(source)).Inc()
}

func (p *PrometheusRecorder) AddBytesCopied(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.bytesCopied.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(outcome)).Inc()
}
