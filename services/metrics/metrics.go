// Package metrics exposes dispatcher counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disiplinku/backend/core/notification"
)

// Collector implements notification.Observer.
type Collector struct {
	registry   *prometheus.Registry
	deliveries *prometheus.CounterVec
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
}

var _ notification.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disiplinku_deliveries_total",
				Help: "Processed queue events by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "disiplinku_dispatch_runs_total",
				Help: "Dispatch runs by overall status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "disiplinku_dispatch_duration_seconds",
				Help:    "Duration of dispatch runs",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
	}
	c.registry.MustRegister(c.deliveries, c.runs, c.duration)
	return c
}

func (c *Collector) ObserveAttempt(kind notification.Kind, outcome notification.Outcome) {
	c.deliveries.WithLabelValues(string(kind), string(outcome)).Inc()
}

func (c *Collector) ObserveDispatch(elapsed time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.runs.WithLabelValues(status).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
