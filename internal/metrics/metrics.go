// Package metrics exposes Prometheus metrics for the batch orchestrator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all orchestrator Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Batch lifecycle
	BatchesStarted  *prometheus.CounterVec // labels: kind
	BatchesFinished *prometheus.CounterVec // labels: kind, status

	// Per-target outcomes
	TargetOutcomes *prometheus.CounterVec // labels: kind, outcome

	// Concurrency
	InFlightTargets prometheus.Gauge
}

// New creates orchestrator metrics on a private registry so tests can
// construct as many instances as they like.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		BatchesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ydms_batches_started_total",
			Help: "Batches submitted for execution, by kind.",
		}, []string{"kind"}),
		BatchesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ydms_batches_finished_total",
			Help: "Batches reaching a terminal status, by kind and status.",
		}, []string{"kind", "status"}),
		TargetOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ydms_batch_targets_total",
			Help: "Recorded target results, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		InFlightTargets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ydms_batch_targets_in_flight",
			Help: "Trigger calls currently in flight across all batches.",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
