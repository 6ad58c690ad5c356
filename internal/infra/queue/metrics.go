package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus metrics for the job queue.
//
// Exposed metrics:
//   - queue_jobs_submitted_total: Jobs accepted by Submit, by kind
//   - queue_jobs_completed_total: Jobs that finished successfully, by kind
//   - queue_jobs_retried_total: Retry attempts, by kind
//   - queue_jobs_dropped_total: Jobs dropped without success, by kind and reason
//     (no_handler, terminal, exhausted)
//   - queue_job_duration_seconds: Handler execution time per attempt, by kind
//   - queue_depth: Jobs currently buffered
type Metrics struct {
	JobsSubmittedTotal *prometheus.CounterVec
	JobsCompletedTotal *prometheus.CounterVec
	JobsRetriedTotal   *prometheus.CounterVec
	JobsDroppedTotal   *prometheus.CounterVec
	JobDurationSeconds *prometheus.HistogramVec
	Depth              prometheus.Gauge
}

// NewMetrics creates queue metrics registered with reg. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry
// so parallel queues do not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsSubmittedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_jobs_submitted_total",
			Help: "Total number of jobs accepted by the queue",
		}, []string{"kind"}),

		JobsCompletedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_jobs_completed_total",
			Help: "Total number of jobs that finished successfully",
		}, []string{"kind"}),

		JobsRetriedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_jobs_retried_total",
			Help: "Total number of job retry attempts",
		}, []string{"kind"}),

		JobsDroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_jobs_dropped_total",
			Help: "Total number of jobs dropped without completing",
		}, []string{"kind", "reason"}),

		JobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queue_job_duration_seconds",
			Help:    "Handler execution time per attempt in seconds",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 60},
		}, []string{"kind"}),

		Depth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Number of jobs currently buffered",
		}),
	}
}

func (m *Metrics) RecordSubmitted(kind string) {
	m.JobsSubmittedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordCompleted(kind string) {
	m.JobsCompletedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordRetry(kind string) {
	m.JobsRetriedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordDropped(kind, reason string) {
	m.JobsDroppedTotal.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) RecordDuration(kind string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) SetDepth(n int) {
	m.Depth.Set(float64(n))
}
