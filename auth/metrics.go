package auth

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records Prometheus metrics for each Decision it observes
type Metrics struct {
	decisions *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewMetrics registers decision metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hmacauth_decisions_total",
				Help: "Total number of requests authenticated, by outcome",
			},
			[]string{"outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hmacauth_decision_seconds",
				Help:    "Time taken to authenticate and authorize a request, by outcome",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"outcome"},
		),
	}
}

// Observe is a DecisionFunc
func (m *Metrics) Observe(ctx context.Context, d Decision) {
	m.decisions.WithLabelValues(d.Outcome).Inc()
	m.latency.WithLabelValues(d.Outcome).Observe(d.ElapsedMilliseconds / 1000)
}
