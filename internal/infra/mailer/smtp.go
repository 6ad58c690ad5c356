package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"newsportal/internal/resilience/retry"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// MessagesPerSecond and Burst configure the outbound rate limit.
	MessagesPerSecond float64
	Burst             int
}

// DefaultSMTPConfig returns relay settings suitable for a local relay.
func DefaultSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:              "localhost",
		Port:              587,
		From:              "no-reply@newsportal.local",
		MessagesPerSecond: 5,
		Burst:             10,
	}
}

// SMTPMailer sends messages through an SMTP relay. Transient transport
// failures are retried with backoff and surfaced as *DeliveryError.
type SMTPMailer struct {
	cfg     SMTPConfig
	limiter *RateLimiter
	logger  *slog.Logger

	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTP creates an SMTP mailer with rate limiting.
func NewSMTP(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.MessagesPerSecond, cfg.Burst),
		logger:  logger,
		send:    smtp.SendMail,
	}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	raw := buildMIME(m.cfg.From, msg)

	err := retry.WithBackoff(ctx, retry.MailConfig(), func() error {
		return m.send(addr, auth, m.cfg.From, msg.Recipients, raw)
	})
	if err != nil {
		m.logger.Warn("smtp send failed",
			slog.String("subject", msg.Subject),
			slog.Int("recipients", len(msg.Recipients)),
			slog.Any("error", err))
		return &DeliveryError{Err: err}
	}

	m.logger.Debug("mail sent",
		slog.String("subject", msg.Subject),
		slog.Int("recipients", len(msg.Recipients)))
	return nil
}

// buildMIME renders the message as an RFC 2045 payload. When an HTML body is
// present the payload is multipart/alternative with the text part first.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		writeQuotedPrintable(&b, msg.TextBody)
		return []byte(b.String())
	}

	const boundary = "np-alt-boundary"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	writeQuotedPrintable(&b, msg.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	writeQuotedPrintable(&b, msg.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func writeQuotedPrintable(b *strings.Builder, body string) {
	w := quotedprintable.NewWriter(b)
	_, _ = w.Write([]byte(body))
	_ = w.Close()
}
