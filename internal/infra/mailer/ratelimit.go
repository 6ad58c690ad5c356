package mailer

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket to outbound mail so a fan-out burst
// cannot overwhelm the SMTP relay.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing a sustained messagesPerSecond
// rate with the given burst capacity.
func NewRateLimiter(messagesPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
	}
}

// Wait blocks until a send slot is available or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
