// Package metrics defines and registers the Prometheus instruments emitted
// by the file-serving engine, following the same init-time
// promauto.New*-under-a-struct-literal convention the teacher project uses
// for its own admin-API metrics (see caddy's metrics.go).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "staticd"
	subsystem = "fileserver"
)

// Metrics is the collection of counters and histograms tracked for every
// request handled by the engine. Construct exactly one per process with
// NewMetrics and share it by pointer.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	ResponseBytes  *prometheus.HistogramVec
	WorkerInFlight prometheus.Gauge
	StreamErrors   *prometheus.CounterVec
}

// NewMetrics registers a fresh Metrics collection against reg. Pass
// prometheus.DefaultRegisterer in production, or a throwaway
// prometheus.NewRegistry() in tests to avoid collisions between parallel
// test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Count of requests handled, labeled by method and status code.",
		}, []string{"method", "status"}),
		ResponseBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "response_bytes",
			Help:      "Distribution of response body sizes actually streamed.",
			Buckets:   prometheus.ExponentialBuckets(256, 8, 8),
		}, []string{"kind"}),
		WorkerInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "worker_inflight",
			Help:      "Number of blocking filesystem tasks currently executing in the worker pool.",
		}),
		StreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_errors_total",
			Help:      "Count of body-streaming errors, labeled by cause.",
		}, []string{"cause"}),
	}
}
