package metrics

import (
    "testing"

    "github.com/prometheus/client_golang/prometheus/testutil"
)

// NewPrometheusMetrics registers every series against the global Prometheus
// registry, so constructing a second instance within the same process would
// panic on duplicate registration. Exercise one shared instance here instead
// of one per test function.
func TestPrometheusMetrics(t *testing.T) {
    pm := NewPrometheusMetrics()

    t.Run("IncrementCounter accumulates per label set", func(t *testing.T) {
        pm.IncrementCounter("pairing_runs_total", map[string]string{"outcome": "success"})
        pm.IncrementCounter("pairing_runs_total", map[string]string{"outcome": "success"})

        got := testutil.ToFloat64(pm.counters["pairing_runs_total"].WithLabelValues("success"))
        if got != 2 {
            t.Fatalf("expected counter to be 2, got %v", got)
        }
    })

    t.Run("SetGauge defaults nil labels to an empty map", func(t *testing.T) {
        pm.SetGauge("directory_size", 42, nil)

        got := testutil.ToFloat64(pm.gauges["directory_size"].WithLabelValues())
        if got != 42 {
            t.Fatalf("expected gauge to be 42, got %v", got)
        }
    })

    t.Run("IncrementCounter ignores an unknown metric name", func(t *testing.T) {
        pm.IncrementCounter("does_not_exist", nil)
    })

    t.Run("ObserveHistogram ignores an unknown metric name", func(t *testing.T) {
        pm.ObserveHistogram("does_not_exist", 1.0, nil)
    })
}
