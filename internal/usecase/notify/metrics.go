package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus metrics for notification dispatch.
//
// Exposed metrics:
//   - notify_sends_total: Individual notification sends by post type and
//     status (success/failure)
//   - notify_dispatches_total: Dispatch job outcomes by result
//     (sent, already_sent, failed)
type Metrics struct {
	SendsTotal      *prometheus.CounterVec
	DispatchesTotal *prometheus.CounterVec
}

// NewMetrics creates dispatch metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_sends_total",
			Help: "Total number of subscriber notification sends by post type and status",
		}, []string{"post_type", "status"}),

		DispatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_dispatches_total",
			Help: "Total number of dispatch job executions by result",
		}, []string{"result"}),
	}
}

// nil-safe recording helpers so the dispatcher works without metrics wired.

func (m *Metrics) recordSend(postType, status string) {
	if m == nil {
		return
	}
	m.SendsTotal.WithLabelValues(postType, status).Inc()
}

func (m *Metrics) recordDispatch(result string) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(result).Inc()
}
