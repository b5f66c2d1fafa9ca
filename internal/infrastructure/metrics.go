package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RowsStreamed    prometheus.Counter
	RowsExported    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the application collectors on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the collectors on reg. Tests pass a private
// registry so repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regpulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		RowsStreamed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "regpulse",
			Name:      "source_rows_streamed_total",
			Help:      "Rows read from the registry source across all requests.",
		}),
		RowsExported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "regpulse",
			Name:      "rows_exported_total",
			Help:      "Rows written to export destinations.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regpulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
}
