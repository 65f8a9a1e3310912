// Package metrics provides the observability hooks for docbake copy runs.
//
// Components receive a Recorder through an option and default to
// NoopRecorder, so no call site needs a nil check:
//
//	a := asset.New(cfg, asset.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler exposes that registry for scraping (used by the watch command).
package metrics
