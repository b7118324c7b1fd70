// Package metrics exposes resolution counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aniresolve"

// Registry holds every collector of the application. The default registry is left alone.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Resolutions counts finished resolutions by outcome (resolved, or the error class).
	Resolutions = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Finished resolutions by outcome.",
	}, []string{"outcome"})

	// Attempts counts provider attempts.
	Attempts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_total",
		Help:      "Provider attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	Blocks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_total",
		Help:      "Catalog pages rejected as anti-bot responses.",
	})

	Rotations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rotations_total",
		Help:      "Identity rotations by result.",
	}, []string{"result"})

	Duration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolution_duration_seconds",
		Help:      "Wall time of a resolution.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
