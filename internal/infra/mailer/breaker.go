package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerMailer wraps a Mailer with a circuit breaker so a dead relay stops
// consuming queue worker time. While the circuit is open, sends fail fast
// with a *DeliveryError, which the queue retries on its usual schedule.
type BreakerMailer struct {
	next    Mailer
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps the given mailer with default breaker settings: the
// circuit opens after a 60% failure ratio over at least 5 sends and stays
// open for 60 seconds.
func NewBreaker(next Mailer, logger *slog.Logger) *BreakerMailer {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "mailer",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("mailer circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &BreakerMailer{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Send implements Mailer.
func (m *BreakerMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.next.Send(ctx, msg)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &DeliveryError{Err: err}
	}
	return err
}
