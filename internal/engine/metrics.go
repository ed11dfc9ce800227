package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

type metrics struct {
	schemas    *prometheus.GaugeVec
	operations *prometheus.CounterVec
	validation *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		schemas: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nameward_schemas_total",
			Help: "Active schemas, by tier.",
		}, []string{"tier"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nameward_operations_total",
			Help: "Mutating operations, by operation and result.",
		}, []string{"op", "result"}),
		validation: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nameward_validations_total",
			Help: "Name validations, by verdict.",
		}, []string{"verdict"}),
	}
}

func (m *metrics) observeSchemas(stats types.Statistics) {
	if m == nil {
		return
	}
	for i, n := range stats.ByTier() {
		m.schemas.WithLabelValues(types.Priority(i + 1).String()).Set(float64(n))
	}
}

func (m *metrics) observeOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *metrics) observeValidation(res types.ValidationResult) {
	if m == nil {
		return
	}
	verdict := "valid"
	switch {
	case res.IsReserved:
		verdict = "reserved"
	case !res.IsValid:
		verdict = "invalid"
	}
	m.validation.WithLabelValues(verdict).Inc()
}
