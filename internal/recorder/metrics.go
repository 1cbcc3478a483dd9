package recorder

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/sqlprobe/internal/ir"
)

// Metrics exports execution facts as Prometheus metrics on a dedicated
// registry. It implements Observer, so it is attached to a trace with
// WithObserver.
type Metrics struct {
	Registry *prometheus.Registry

	StatementsTotal   *prometheus.CounterVec
	StatementDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		StatementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sqlprobe",
				Name:      "statements_total",
				Help:      "Intercepted statement executions by operation and status.",
			},
			[]string{"operation", "status"},
		),

		StatementDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sqlprobe",
				Name:      "statement_duration_seconds",
				Help:      "Duration of successful intercepted statement executions.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(m.StatementsTotal, m.StatementDuration)
	return m
}

// ObserveExecution implements Observer.
// Failed facts only count; their sentinel timing is not a duration.
func (m *Metrics) ObserveExecution(fact ir.ExecutionFact) {
	op := fact.Operation
	if op == "" {
		op = "unknown"
	}
	if fact.Failed {
		m.StatementsTotal.WithLabelValues(op, "failed").Inc()
		return
	}
	m.StatementsTotal.WithLabelValues(op, "ok").Inc()
	m.StatementDuration.WithLabelValues(op).Observe(float64(fact.ExecutionMillis) / 1000)
}
