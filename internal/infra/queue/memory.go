package queue

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds tuning knobs for the in-process queue.
type Config struct {
	// Workers is the number of goroutines dequeuing jobs. Default: 4.
	Workers int

	// BufferSize is the channel capacity. Submit fails with ErrFull
	// once it is reached. Default: 256.
	BufferSize int

	// MaxAttempts is how many times a job runs before being dropped.
	// Default: 3.
	MaxAttempts int

	// InitialDelay is the backoff before the first retry. Default: 1s.
	InitialDelay time.Duration

	// MaxDelay caps the backoff. Default: 30s.
	MaxDelay time.Duration

	// Multiplier grows the backoff between attempts. Default: 2.0.
	Multiplier float64

	// JitterFraction randomizes each delay by +/- this fraction to
	// avoid thundering herds. Default: 0.1.
	JitterFraction float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        4,
		BufferSize:     256,
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier <= 1.0 {
		c.Multiplier = d.Multiplier
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = d.JitterFraction
	}
	return c
}

// MemoryQueue runs jobs on an in-process worker pool. Retries happen
// in place on the worker that picked the job up, with exponential backoff,
// so a poisoned job never re-enters the buffer.
type MemoryQueue struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	mu       sync.RWMutex
	handlers map[Kind]HandlerFunc
	closed   bool

	jobs chan Job
	wg   sync.WaitGroup
}

// NewMemory creates a queue and starts its worker pool immediately.
func NewMemory(cfg Config, logger *slog.Logger, metrics *Metrics) *MemoryQueue {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	q := &MemoryQueue{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		handlers: make(map[Kind]HandlerFunc),
		jobs:     make(chan Job, cfg.BufferSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Register binds a handler to a kind. Registering the same kind twice
// replaces the previous handler; register everything before submitting.
func (q *MemoryQueue) Register(kind Kind, h HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = h
}

// Submit enqueues a job and returns its ID without blocking.
func (q *MemoryQueue) Submit(ctx context.Context, kind Kind, payload []byte) (string, error) {
	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	// The read lock is held across the send: Shutdown takes the write
	// lock before closing the channel, so it cannot close it under an
	// in-flight submitter. The send is non-blocking, so the lock is
	// never held for long.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return "", ErrShutdown
	}

	select {
	case q.jobs <- job:
		q.metrics.RecordSubmitted(string(kind))
		q.metrics.SetDepth(len(q.jobs))
		return job.ID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", fmt.Errorf("Submit %s: %w", kind, ErrFull)
	}
}

// Shutdown stops accepting jobs and waits for in-flight and buffered jobs
// to drain, up to ctx's deadline.
func (q *MemoryQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Shutdown: %w", ctx.Err())
	}
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.metrics.SetDepth(len(q.jobs))
		q.run(job)
	}
}

// run executes a job with in-place retries.
func (q *MemoryQueue) run(job Job) {
	q.mu.RLock()
	handler, ok := q.handlers[job.Kind]
	q.mu.RUnlock()

	if !ok {
		// No handler can ever succeed for this kind; treat as terminal.
		q.logger.Error("job dropped: no handler registered",
			slog.String("job_id", job.ID),
			slog.String("kind", string(job.Kind)))
		q.metrics.RecordDropped(string(job.Kind), "no_handler")
		return
	}

	delay := q.cfg.InitialDelay
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		job.Attempt = attempt
		start := time.Now()
		err := handler(context.Background(), job)
		q.metrics.RecordDuration(string(job.Kind), time.Since(start).Seconds())

		if err == nil {
			q.metrics.RecordCompleted(string(job.Kind))
			return
		}

		if IsTerminal(err) {
			q.logger.Warn("job dropped: terminal failure",
				slog.String("job_id", job.ID),
				slog.String("kind", string(job.Kind)),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			q.metrics.RecordDropped(string(job.Kind), "terminal")
			return
		}

		if attempt == q.cfg.MaxAttempts {
			q.logger.Error("job dropped: attempts exhausted",
				slog.String("job_id", job.ID),
				slog.String("kind", string(job.Kind)),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()))
			q.metrics.RecordDropped(string(job.Kind), "exhausted")
			return
		}

		q.logger.Warn("job failed, retrying",
			slog.String("job_id", job.ID),
			slog.String("kind", string(job.Kind)),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()))
		q.metrics.RecordRetry(string(job.Kind))

		time.Sleep(addJitter(delay, q.cfg.JitterFraction))
		delay = time.Duration(float64(delay) * q.cfg.Multiplier)
		if delay > q.cfg.MaxDelay {
			delay = q.cfg.MaxDelay
		}
	}
}

// addJitter randomizes d by +/- fraction.
func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	jitter := (rand.Float64()*2 - 1) * fraction * float64(d)
	return d + time.Duration(jitter)
}
