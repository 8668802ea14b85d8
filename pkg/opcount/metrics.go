package opcount

import (
	"github.com/prometheus/client_golang/prometheus"
)

// prometheusRegisterer is satisfied by *prometheus.Registry and the default
// registerer; narrow on purpose so tests can pass a fresh registry.
type prometheusRegisterer interface {
	Register(prometheus.Collector) error
}

type metrics struct {
	operationsTotal *prometheus.CounterVec
}

func newMetrics(reg prometheusRegisterer) (*metrics, error) {
	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kaiwa_store_operations_total",
			Help: "Total document store operations attributed to requests.",
		},
		[]string{"collection", "operation"},
	)
	if err := reg.Register(operationsTotal); err != nil {
		return nil, err
	}
	return &metrics{operationsTotal: operationsTotal}, nil
}

func (m *metrics) observe(collection, op string, n int64) {
	m.operationsTotal.WithLabelValues(collection, op).Add(float64(n))
}
