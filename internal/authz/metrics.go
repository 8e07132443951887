package authz

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds collectors for authorization checks.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careergate_authz_decisions_total",
			Help: "Authorization decisions by capability and outcome",
		}, []string{"capability", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careergate_authz_duration_seconds",
			Help:    "Time spent resolving identity and role for one check",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"capability"}),
	}
}

func (m *Metrics) observe(capability Capability, out Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(capability), out.Kind.String()).Inc()
	m.Duration.WithLabelValues(string(capability)).Observe(elapsed.Seconds())
}
