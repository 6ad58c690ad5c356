// Package mailer provides the outbound email abstraction for the
// notification pipeline. The transport is a black box behind the Mailer
// interface: implementations handle rate limiting, retries, and error
// classification internally.
package mailer

import (
	"context"
	"fmt"

	"newsportal/internal/domain/entity"
)

// Message is a single outbound email. HTMLBody is optional; when set, the
// message is sent as a multipart alternative with TextBody as the fallback.
type Message struct {
	Subject    string
	TextBody   string
	HTMLBody   string
	Recipients []string
}

// Mailer sends a message to its recipients.
//
// A transport failure is reported as a *DeliveryError so callers (the job
// queue) can classify it as retryable. Input problems are reported as
// validation errors and are not retried.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Validate checks that the message can be sent at all.
func (m *Message) Validate() error {
	if m.Subject == "" {
		return &entity.ValidationError{Field: "subject", Message: "is required"}
	}
	if m.TextBody == "" {
		return &entity.ValidationError{Field: "textBody", Message: "is required"}
	}
	if len(m.Recipients) == 0 {
		return &entity.ValidationError{Field: "recipients", Message: "at least one is required"}
	}
	return nil
}

// DeliveryError is a transient mail transport failure. It wraps the
// underlying transport error and is the signal for the job queue's retry
// policy.
type DeliveryError struct {
	Err error
}

// Error returns the formatted delivery error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery failed: %v", e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
