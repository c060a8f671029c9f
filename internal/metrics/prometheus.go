// Package metrics registers the Prometheus series the pairing engine
// exposes: run outcomes, Kobayashi resets, store retries, and the
// per-phase timing instrumentation carried over from the original
// implementation's perf_counter() deltas.
package metrics

import (
    "fmt"
    "net/http"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/dirflash/fuse-pairing/pkg/logger"
)

type PrometheusMetrics struct {
    counters   map[string]*prometheus.CounterVec
    histograms map[string]*prometheus.HistogramVec
    gauges     map[string]*prometheus.GaugeVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
    pm := &PrometheusMetrics{
        counters:   make(map[string]*prometheus.CounterVec),
        histograms: make(map[string]*prometheus.HistogramVec),
        gauges:     make(map[string]*prometheus.GaugeVec),
    }

    pm.registerMetrics()

    return pm
}

func (pm *PrometheusMetrics) registerMetrics() {
    // Counters
    pm.counters["pairing_runs_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "pairing_runs_total",
            Help: "Total number of pairing runs attempted",
        },
        []string{"outcome"},
    )

    pm.counters["pairing_kobayashi_resets_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "pairing_kobayashi_resets_total",
            Help: "Total number of Kobayashi infeasibility resets triggered",
        },
        []string{"session_date"},
    )

    pm.counters["pairing_pairs_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "pairing_pairs_total",
            Help: "Total number of SE pairs produced across all runs",
        },
        []string{},
    )

    pm.counters["store_retries_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "store_retries_total",
            Help: "Total number of retried store operations",
        },
        []string{"op"},
    )

    pm.counters["store_unavailable_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "store_unavailable_total",
            Help: "Total number of store operations that exhausted their retry budget",
        },
        []string{"op"},
    )

    pm.counters["intake_rosters_total"] = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Name: "intake_rosters_total",
            Help: "Total number of attendance rosters ingested",
        },
        []string{"result"},
    )

    // Histograms
    pm.histograms["pairing_bucket_build_duration"] = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "pairing_bucket_build_duration_seconds",
            Help:    "Time spent building region buckets from the directory",
            Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
        },
        []string{},
    )

    pm.histograms["pairing_run_duration"] = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "pairing_run_duration_seconds",
            Help:    "Total duration of a pairing run, including resets",
            Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
        },
        []string{"outcome"},
    )

    // Gauges
    pm.gauges["pairing_active_attendees"] = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "pairing_active_attendees",
            Help: "Size of the effective attendance set for the current run",
        },
        []string{"session_date"},
    )

    pm.gauges["directory_size"] = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "directory_size",
            Help: "Current number of SEs known to the directory store",
        },
        []string{},
    )

    // Register all metrics
    for _, counter := range pm.counters {
        prometheus.MustRegister(counter)
    }
    for _, histogram := range pm.histograms {
        prometheus.MustRegister(histogram)
    }
    for _, gauge := range pm.gauges {
        prometheus.MustRegister(gauge)
    }
}

func (pm *PrometheusMetrics) IncrementCounter(name string, labels map[string]string) {
    if counter, exists := pm.counters[name]; exists {
        counter.With(prometheus.Labels(labels)).Inc()
    }
}

func (pm *PrometheusMetrics) ObserveHistogram(name string, value float64, labels map[string]string) {
    if histogram, exists := pm.histograms[name]; exists {
        histogram.With(prometheus.Labels(labels)).Observe(value)
    }
}

func (pm *PrometheusMetrics) SetGauge(name string, value float64, labels map[string]string) {
    if gauge, exists := pm.gauges[name]; exists {
        if labels == nil {
            labels = make(map[string]string)
        }
        gauge.With(prometheus.Labels(labels)).Set(value)
    }
}

func (pm *PrometheusMetrics) ServeHTTP(port int) error {
    http.Handle("/metrics", promhttp.Handler())
    addr := fmt.Sprintf(":%d", port)
    logger.WithField("addr", addr).Info("metrics server started")
    return http.ListenAndServe(addr, nil)
}
