package worker

import (
	"fmt"
	"log/slog"
	"time"

	"newsportal/internal/pkg/config"
)

// Config holds the operational settings of the worker process: cron
// schedules for the weekly digest and the nightly token sweep, the
// scheduler timezone, concurrency limits, and listen ports.
//
// Configuration is loaded fail-open: an invalid environment value falls
// back to its default with a warning rather than aborting startup, so a
// bad deploy still sends notifications on the default schedule.
type Config struct {
	// DigestCronSchedule fires the weekly digest run.
	// Default: "0 8 * * 1" (Mondays at 08:00).
	DigestCronSchedule string

	// SweepCronSchedule fires the expired-token cleanup.
	// Default: "30 3 * * *" (daily at 03:30).
	SweepCronSchedule string

	// Timezone is the IANA timezone the cron schedules run in.
	// Default: "UTC".
	Timezone string

	// QueueWorkers is the size of the job queue worker pool. Range 1-32.
	// Default: 4.
	QueueWorkers int

	// NotifyMaxConcurrent bounds parallel sends inside one notification
	// fan-out. Range 1-50. Default: 10.
	NotifyMaxConcurrent int

	// DigestTimeout cancels a digest run that overstays. Range 1m-4h.
	// Default: 30 minutes.
	DigestTimeout time.Duration

	// HealthPort serves liveness/readiness probes. Default: 9091.
	HealthPort int

	// MetricsPort serves the Prometheus scrape endpoint. Default: 9092.
	MetricsPort int
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() Config {
	return Config{
		DigestCronSchedule:  "0 8 * * 1",
		SweepCronSchedule:   "30 3 * * *",
		Timezone:            "UTC",
		QueueWorkers:        4,
		NotifyMaxConcurrent: 10,
		DigestTimeout:       30 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9092,
	}
}

// Validate checks every field and returns the collected failures.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.DigestCronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("digest cron schedule: %w", err))
	}
	if err := config.ValidateCronSchedule(c.SweepCronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sweep cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.QueueWorkers, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("queue workers: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidateDuration(c.DigestTimeout, 1*time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("digest timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv builds a Config from environment variables with
// per-field fallback to defaults. It never returns an invalid config.
//
// Environment variables:
//   - DIGEST_CRON_SCHEDULE (default "0 8 * * 1")
//   - SWEEP_CRON_SCHEDULE (default "30 3 * * *")
//   - WORKER_TIMEZONE (default "UTC")
//   - QUEUE_WORKERS (default 4, range 1-32)
//   - NOTIFY_MAX_CONCURRENT (default 10, range 1-50)
//   - DIGEST_TIMEOUT (default "30m", range 1m-4h)
//   - WORKER_HEALTH_PORT (default 9091)
//   - WORKER_METRICS_PORT (default 9092)
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) *Config {
	cfg := DefaultConfig()
	anyFallback := false

	apply := func(field string, fellBack bool, warning string) {
		if !fellBack {
			return
		}
		anyFallback = true
		metrics.Config.RecordValidationError(field)
		metrics.Config.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}

	r := config.LoadEnv("DIGEST_CRON_SCHEDULE", cfg.DigestCronSchedule, config.ValidateCronSchedule)
	cfg.DigestCronSchedule = r.Value
	apply("digest_cron_schedule", r.FallbackApplied, r.Warning)

	r = config.LoadEnv("SWEEP_CRON_SCHEDULE", cfg.SweepCronSchedule, config.ValidateCronSchedule)
	cfg.SweepCronSchedule = r.Value
	apply("sweep_cron_schedule", r.FallbackApplied, r.Warning)

	r = config.LoadEnv("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = r.Value
	apply("timezone", r.FallbackApplied, r.Warning)

	ri := config.LoadEnvInt("QUEUE_WORKERS", cfg.QueueWorkers, func(v int) error {
		return config.ValidateIntRange(v, 1, 32)
	})
	cfg.QueueWorkers = ri.Value
	apply("queue_workers", ri.FallbackApplied, ri.Warning)

	ri = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.NotifyMaxConcurrent = ri.Value
	apply("notify_max_concurrent", ri.FallbackApplied, ri.Warning)

	rd := config.LoadEnvDuration("DIGEST_TIMEOUT", cfg.DigestTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.DigestTimeout = rd.Value
	apply("digest_timeout", rd.FallbackApplied, rd.Warning)

	ri = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = ri.Value
	apply("health_port", ri.FallbackApplied, ri.Warning)

	ri = config.LoadEnvInt("WORKER_METRICS_PORT", cfg.MetricsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.MetricsPort = ri.Value
	apply("metrics_port", ri.FallbackApplied, ri.Warning)

	metrics.Config.SetFallbackActive(anyFallback)
	metrics.Config.RecordLoadTimestamp()

	return &cfg
}

// Location loads the configured timezone. Call after Validate; an invalid
// timezone falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
