// The worker binary runs the asynchronous side of the portal: the job queue
// that delivers subscriber notifications and account emails, the weekly
// digest scheduler, and the nightly expired-token sweep.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"newsportal/internal/config"
	"newsportal/internal/domain/event"
	pgRepo "newsportal/internal/infra/adapter/persistence/postgres"
	"newsportal/internal/infra/cache"
	"newsportal/internal/infra/db"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/infra/queue"
	workerPkg "newsportal/internal/infra/worker"
	"newsportal/internal/observability/logging"
	"newsportal/internal/usecase/account"
	"newsportal/internal/usecase/digest"
	"newsportal/internal/usecase/invalidate"
	"newsportal/internal/usecase/notify"
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	appCfg := config.Load()

	workerMetrics := workerPkg.NewMetrics(prometheus.DefaultRegisterer)
	workerCfg := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("digest_schedule", workerCfg.DigestCronSchedule),
		slog.String("sweep_schedule", workerCfg.SweepCronSchedule),
		slog.String("timezone", workerCfg.Timezone),
		slog.Int("queue_workers", workerCfg.QueueWorkers),
		slog.Int("notify_max_concurrent", workerCfg.NotifyMaxConcurrent))

	database := db.Open()
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	posts := pgRepo.NewPostRepo(database)
	categories := pgRepo.NewCategoryRepo(database)
	subscriptions := pgRepo.NewSubscriptionRepo(database)
	authors := pgRepo.NewAuthorRepo(database)
	users := pgRepo.NewUserRepo(database)
	tokens := pgRepo.NewTokenRepo(database)

	mail := buildMailer(appCfg.SMTP, logger)

	queueCfg := queue.DefaultConfig()
	queueCfg.Workers = workerCfg.QueueWorkers
	jobs := queue.NewMemory(queueCfg, logger, queue.NewMetrics(prometheus.DefaultRegisterer))

	bus := event.NewBus(logger)
	notify.RegisterSubmitter(bus, jobs, logger)

	dispatcher := &notify.Dispatcher{
		Posts:         posts,
		Categories:    categories,
		Subscriptions: subscriptions,
		Authors:       authors,
		Users:         users,
		Mailer:        mail,
		Site:          appCfg.Site,
		Logger:        logger,
		Metrics:       notify.NewMetrics(prometheus.DefaultRegisterer),
		MaxConcurrent: workerCfg.NotifyMaxConcurrent,
	}
	jobs.Register(notify.JobDispatchPost, dispatcher.HandleDispatchPost)

	accountSvc := &account.Service{
		Users:   users,
		Authors: authors,
		Tokens:  tokens,
		Bus:     bus,
		Queue:   jobs,
		Mailer:  mail,
		Site:    appCfg.Site,
		Logger:  logger,
	}
	accountSvc.RegisterHandlers(bus)
	jobs.Register(account.JobSendWelcomeEmail, accountSvc.HandleSendWelcomeEmail)
	jobs.Register(account.JobSendActivationSuccessEmail, accountSvc.HandleSendActivationSuccess)

	pageCache := cache.NewMemory(cache.MemoryConfig{})
	invalidator := invalidate.New(pageCache, logger,
		invalidate.NewMetrics(prometheus.DefaultRegisterer))
	invalidator.RegisterHandlers(bus)

	digestSvc := &digest.Service{
		Subscriptions: subscriptions,
		Categories:    categories,
		Posts:         posts,
		Users:         users,
		Mailer:        mail,
		Site:          appCfg.Site,
		Logger:        logger,
	}

	startMetricsServer(ctx, logger, workerCfg.MetricsPort)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	scheduler, err := startScheduler(ctx, logger, workerCfg, workerMetrics, digestSvc, accountSvc)
	if err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.Int("health_port", workerCfg.HealthPort),
		slog.Int("metrics_port", workerCfg.MetricsPort))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	cronCtx := scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(workerCfg.DigestTimeout):
		logger.Warn("cron jobs did not finish before shutdown deadline")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := jobs.Shutdown(drainCtx); err != nil {
		logger.Warn("job queue drain incomplete", slog.Any("error", err))
	}
	logger.Info("worker stopped")
}

// buildMailer selects the outbound mail transport. With SMTP configured the
// relay is wrapped in a circuit breaker; otherwise mail is logged and
// dropped, which keeps development environments from needing a relay.
func buildMailer(cfg config.SMTPConfig, logger *slog.Logger) mailer.Mailer {
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured, outbound mail will be logged and dropped")
		return mailer.NewNoop(logger)
	}
	smtp := mailer.NewSMTP(mailer.SMTPConfig{
		Host:              cfg.Host,
		Port:              cfg.Port,
		Username:          cfg.Username,
		Password:          cfg.Password,
		From:              cfg.From,
		MessagesPerSecond: cfg.MessagesPerSecond,
		Burst:             cfg.Burst,
	}, logger)
	return mailer.NewBreaker(smtp, logger)
}

// startScheduler wires the digest and token-sweep cron entries and starts
// the scheduler in the configured timezone.
func startScheduler(
	ctx context.Context,
	logger *slog.Logger,
	cfg *workerPkg.Config,
	metrics *workerPkg.Metrics,
	digestSvc *digest.Service,
	accountSvc *account.Service,
) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithLocation(cfg.Location()))

	_, err := scheduler.AddFunc(cfg.DigestCronSchedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, cfg.DigestTimeout)
		defer cancel()

		started := time.Now()
		stats, err := digestSvc.RunWeeklyDigest(runCtx)
		metrics.RecordJobDuration(workerPkg.JobWeeklyDigest, time.Since(started).Seconds())
		if err != nil {
			metrics.RecordJobRun(workerPkg.JobWeeklyDigest, false)
			logger.Error("weekly digest run failed", slog.Any("error", err))
			return
		}
		metrics.RecordJobRun(workerPkg.JobWeeklyDigest, true)
		metrics.RecordLastSuccess(workerPkg.JobWeeklyDigest)
		metrics.RecordDigestEmails(stats.Sent)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule weekly digest: %w", err)
	}

	_, err = scheduler.AddFunc(cfg.SweepCronSchedule, func() {
		started := time.Now()
		deleted, err := accountSvc.CleanupExpiredTokens(ctx)
		metrics.RecordJobDuration(workerPkg.JobTokenSweep, time.Since(started).Seconds())
		if err != nil {
			metrics.RecordJobRun(workerPkg.JobTokenSweep, false)
			logger.Error("token sweep failed", slog.Any("error", err))
			return
		}
		metrics.RecordJobRun(workerPkg.JobTokenSweep, true)
		metrics.RecordLastSuccess(workerPkg.JobTokenSweep)
		metrics.RecordTokensSwept(deleted)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule token sweep: %w", err)
	}

	scheduler.Start()
	logger.Info("cron scheduler started",
		slog.String("digest_schedule", cfg.DigestCronSchedule),
		slog.String("sweep_schedule", cfg.SweepCronSchedule),
		slog.String("timezone", cfg.Timezone))
	return scheduler, nil
}
