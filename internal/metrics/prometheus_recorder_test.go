package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("normalize", 150*time.Millisecond)
	pr.ObserveRunDuration("3NF", 500*time.Millisecond)
	pr.IncRunOutcome("3NF", OutcomeSuccess)
	pr.AddTablesProduced("3NF", 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"dbnormalizer_stage_duration_seconds",
		"dbnormalizer_run_duration_seconds",
		"dbnormalizer_run_outcomes_total",
		"dbnormalizer_tables_produced_total",
	} {
		require.True(t, names[want], "missing metric %s", want)
	}
}

func TestPrometheusRecorderWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRunOutcome("BCNF", OutcomeFailed)

	path := filepath.Join(t.TempDir(), "dbnormalizer.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `dbnormalizer_run_outcomes_total{form="BCNF",outcome="failed"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(prom.NewRegistry())
	pr.AddTablesProduced("2NF", 2)

	rec := httptest.NewRecorder()
	HTTPHandler(pr.Registry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "dbnormalizer_tables_produced_total")
}

func TestRouter(t *testing.T) {
	pr := NewPrometheusRecorder(prom.NewRegistry())
	pr.IncRunOutcome("4NF", OutcomeSuccess)
	r := NewRouter(pr.Registry())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `outcome="success"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("parse", time.Second)
	pr.IncRunOutcome("1NF", OutcomeSuccess)
}
