package mailer

import (
	"context"
	"log/slog"
)

// Noop is a Mailer that logs and drops every message. It is used when no
// SMTP relay is configured, keeping the pipeline exercisable in development.
type Noop struct {
	logger *slog.Logger
}

// NewNoop creates a no-op mailer.
func NewNoop(logger *slog.Logger) *Noop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Noop{logger: logger}
}

// Send implements Mailer. It validates the message, logs it, and succeeds.
func (m *Noop) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.logger.Info("mail dropped (noop mailer)",
		slog.String("subject", msg.Subject),
		slog.Int("recipients", len(msg.Recipients)))
	return nil
}
