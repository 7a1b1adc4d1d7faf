package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Observe(context.Background(), Decision{Outcome: OutcomeAllow, ElapsedMilliseconds: 2})
	m.Observe(context.Background(), Decision{Outcome: OutcomeAllow, ElapsedMilliseconds: 3})
	m.Observe(context.Background(), Decision{Outcome: "forbidden", ElapsedMilliseconds: 1})

	t.Run("decisions are counted by outcome", func(t *testing.T) {
		assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues(OutcomeAllow)))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("forbidden")))

		expected := `
# HELP hmacauth_decisions_total Total number of requests authenticated, by outcome
# TYPE hmacauth_decisions_total counter
hmacauth_decisions_total{outcome="allow"} 2
hmacauth_decisions_total{outcome="forbidden"} 1
`
		err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "hmacauth_decisions_total")
		assert.NoError(t, err)
	})

	t.Run("latency is observed in seconds", func(t *testing.T) {
		count, err := testutil.GatherAndCount(reg, "hmacauth_decision_seconds")
		assert.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("registering twice with the same registry panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewMetrics(reg)
		})
	})
}
