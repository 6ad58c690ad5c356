package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"newsportal/internal/pkg/config"
)

// Job names used as metric label values.
const (
	JobWeeklyDigest = "weekly_digest"
	JobTokenSweep   = "token_sweep"
)

// Metrics provides Prometheus metrics for the worker's scheduled jobs,
// plus the embedded configuration metrics.
//
// Exposed metrics:
//   - worker_cron_job_runs_total: Runs by job and status (success/failure)
//   - worker_cron_job_duration_seconds: Run duration histogram by job
//   - worker_cron_job_last_success_timestamp: Last successful run by job
//   - worker_digest_emails_sent_total: Digest emails delivered
//   - worker_tokens_swept_total: Expired activation tokens removed
type Metrics struct {
	Config *config.Metrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      *prometheus.HistogramVec
	CronJobLastSuccessTimestamp *prometheus.GaugeVec
	DigestEmailsSentTotal       prometheus.Counter
	TokensSweptTotal            prometheus.Counter
}

// NewMetrics creates worker metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Config: config.NewMetrics("worker", reg),

		CronJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by job and status",
		}, []string{"job", "status"}),

		CronJobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job runs in seconds",
			Buckets: []float64{0.1, 1, 5, 30, 60, 300, 900, 1800},
		}, []string{"job"}),

		CronJobLastSuccessTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run by job",
		}, []string{"job"}),

		DigestEmailsSentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_digest_emails_sent_total",
			Help: "Total number of weekly digest emails delivered",
		}),

		TokensSweptTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_tokens_swept_total",
			Help: "Total number of expired activation tokens removed",
		}),
	}
}

// RecordJobRun counts one run of job, labeled "success" or "failure".
func (m *Metrics) RecordJobRun(job string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.CronJobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes one run duration in seconds.
func (m *Metrics) RecordJobDuration(job string, seconds float64) {
	m.CronJobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordLastSuccess marks the current time as job's last successful run.
func (m *Metrics) RecordLastSuccess(job string) {
	m.CronJobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// RecordDigestEmails adds delivered digest emails to the total.
func (m *Metrics) RecordDigestEmails(count int) {
	m.DigestEmailsSentTotal.Add(float64(count))
}

// RecordTokensSwept adds removed tokens to the total.
func (m *Metrics) RecordTokensSwept(count int64) {
	m.TokensSweptTotal.Add(float64(count))
}
