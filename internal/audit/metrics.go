package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Appended       *prometheus.CounterVec
	AppendFailures *prometheus.CounterVec
	Dropped        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careergate_audit_appended_total",
			Help: "Audit records persisted, by action",
		}, []string{"action"}),
		AppendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "careergate_audit_append_failures_total",
			Help: "Audit records the store failed to persist, by action",
		}, []string{"action"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "careergate_audit_dropped_total",
			Help: "Audit records dropped because the async buffer was full or closed",
		}),
	}
}

func (m *Metrics) incAppended(action Action) {
	if m != nil {
		m.Appended.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) incFailure(action Action) {
	if m != nil {
		m.AppendFailures.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}
