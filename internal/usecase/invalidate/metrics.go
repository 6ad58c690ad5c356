package invalidate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache evictions performed by the invalidator.
type Metrics struct {
	EvictionsTotal        prometheus.Counter
	EvictionFailuresTotal prometheus.Counter
}

// NewMetrics registers the invalidator metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Cache keys evicted in response to domain events.",
		}),
		EvictionFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cache_eviction_failures_total",
			Help: "Cache evictions that failed and were dropped.",
		}),
	}
}

func (m *Metrics) recordEviction() {
	if m == nil {
		return
	}
	m.EvictionsTotal.Inc()
}

func (m *Metrics) recordFailure() {
	if m == nil {
		return
	}
	m.EvictionFailuresTotal.Inc()
}
