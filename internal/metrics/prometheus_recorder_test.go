package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncFileCopied(SourceAssets)
	pr.IncFileCopied(SourceAssets)
	pr.IncFileCopied(SourceContent)
	pr.IncFileSkipped(SourceAssets)
	pr.IncCopyError(SourceSingle)
	pr.AddBytesCopied(2048)
	pr.AddBytesCopied(-1)
	pr.ObserveRunDuration(150 * time.Millisecond)
	pr.IncRunOutcome(OutcomeErrors)

	assert.InDelta(t, 2, gatherValue(t, reg, "docbake_files_copied_total", "assets"), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "docbake_files_copied_total", "content"), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "docbake_files_skipped_total", "assets"), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "docbake_copy_errors_total", "single"), 0)
	assert.InDelta(t, 2048, gatherValue(t, reg, "docbake_bytes_copied_total", ""), 0)
	assert.InDelta(t, 1, gatherValue(t, reg, "docbake_run_outcomes_total", "errors"), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

// gatherValue returns the counter value of family name whose single label
// equals label (or the unlabeled counter when label is empty).
func gatherValue(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := m.GetLabel()
			if label == "" && len(labels) == 0 {
				return m.GetCounter().GetValue()
			}
			if len(labels) == 1 && labels[0].GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncFileCopied(SourceAssets)
		pr.AddBytesCopied(10)
		pr.IncRunOutcome(OutcomeSuccess)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncFileCopied(SourceContent)

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `docbake_files_copied_total{source="content"} 1`)
}
