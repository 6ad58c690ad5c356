// Package account implements the registration and activation flow: role
// assignment and token issue on registration, token activation with author
// promotion, activation resend, expired-token cleanup, and the mail jobs
// those steps submit.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"newsportal/internal/config"
	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/infra/queue"
	"newsportal/internal/repository"
)

// Job kinds handled by this package.
const (
	JobSendWelcomeEmail           queue.Kind = "account.send_welcome_email"
	JobSendActivationSuccessEmail queue.Kind = "account.send_activation_success_email"
)

// WelcomePayload is the job payload for the welcome email.
type WelcomePayload struct {
	UserID        int64  `json:"user_id"`
	ActivationURL string `json:"activation_url"`
}

// SuccessPayload is the job payload for the activation confirmation email.
type SuccessPayload struct {
	UserID int64 `json:"user_id"`
}

// Service owns the registration/activation flow.
type Service struct {
	Users   repository.UserRepository
	Authors repository.AuthorRepository
	Tokens  repository.TokenRepository
	Bus     *event.Bus
	Queue   queue.Queue
	Mailer  mailer.Mailer
	Site    config.SiteConfig
	Logger  *slog.Logger
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// RegisterHandlers subscribes the registration and activation event handlers
// on the bus.
func (s *Service) RegisterHandlers(bus *event.Bus) {
	bus.Subscribe(event.KindUserRegistered, func(ctx context.Context, ev event.Event) error {
		e, ok := ev.(event.UserRegistered)
		if !ok {
			return nil
		}
		return s.OnUserRegistered(ctx, e)
	})
	bus.Subscribe(event.KindAccountActivated, func(ctx context.Context, ev event.Event) error {
		e, ok := ev.(event.AccountActivated)
		if !ok {
			return nil
		}
		return s.OnAccountActivated(ctx, e)
	})
}

// OnUserRegistered performs the post-registration setup: the default role,
// an author profile shell, a fresh activation token, and the welcome email
// job.
func (s *Service) OnUserRegistered(ctx context.Context, ev event.UserRegistered) error {
	if err := s.Users.AddRole(ctx, ev.UserID, entity.RoleCommon); err != nil {
		return fmt.Errorf("add common role: %w", err)
	}

	author, err := s.Authors.GetByUser(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("get author profile: %w", err)
	}
	if author == nil {
		if err := s.Authors.Create(ctx, &entity.Author{UserID: ev.UserID}); err != nil {
			return fmt.Errorf("create author profile: %w", err)
		}
	}

	token, err := s.issueToken(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return s.submitWelcome(ctx, ev.UserID, token)
}

// ActivateResult reports what Activate did.
type ActivateResult struct {
	UserID           int64
	AlreadyActivated bool
}

// Activate consumes an activation token. Activating an already activated
// token is a no-op; an expired token fails with ErrTokenExpired and stays in
// place for a later resend to replace.
func (s *Service) Activate(ctx context.Context, token string) (*ActivateResult, error) {
	record, err := s.Tokens.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if record == nil {
		return nil, ErrTokenNotFound
	}
	if record.Activated {
		return &ActivateResult{UserID: record.UserID, AlreadyActivated: true}, nil
	}
	if record.IsExpired(s.now()) {
		return nil, ErrTokenExpired
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Tokens.MarkActivated(ctx, record.ID); err != nil {
		return nil, fmt.Errorf("mark activated: %w", err)
	}
	buf.Raise(event.AccountActivated{UserID: record.UserID})
	buf.Flush(ctx)

	return &ActivateResult{UserID: record.UserID}, nil
}

// OnAccountActivated promotes the user to the authors role and submits the
// confirmation email job.
func (s *Service) OnAccountActivated(ctx context.Context, ev event.AccountActivated) error {
	held, err := s.Users.HasRole(ctx, ev.UserID, entity.RoleAuthors)
	if err != nil {
		return fmt.Errorf("check authors role: %w", err)
	}
	if !held {
		if err := s.Users.AddRole(ctx, ev.UserID, entity.RoleAuthors); err != nil {
			return fmt.Errorf("add authors role: %w", err)
		}
	}

	payload, err := json.Marshal(SuccessPayload{UserID: ev.UserID})
	if err != nil {
		return fmt.Errorf("marshal success payload: %w", err)
	}
	jobID, err := s.Queue.Submit(ctx, JobSendActivationSuccessEmail, payload)
	if err != nil {
		return fmt.Errorf("submit success email: %w", err)
	}
	s.logger().Info("activation success email queued",
		slog.Int64("user_id", ev.UserID),
		slog.String("job_id", jobID))
	return nil
}

// ResendResult reports what ResendActivation did.
type ResendResult struct {
	AlreadyActivated bool
	Reissued         bool
}

// ResendActivation re-sends the activation email. An expired token is
// deleted and replaced first; a missing token (e.g. removed by the sweep) is
// re-issued; an already activated account gets an informational no-op.
func (s *Service) ResendActivation(ctx context.Context, userID int64) (*ResendResult, error) {
	record, err := s.Tokens.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	if record != nil && record.Activated {
		return &ResendResult{AlreadyActivated: true}, nil
	}

	result := &ResendResult{}
	token := ""
	switch {
	case record == nil:
		token, err = s.issueToken(ctx, userID)
		if err != nil {
			return nil, err
		}
		result.Reissued = true
	case record.IsExpired(s.now()):
		if err := s.Tokens.Delete(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("delete expired token: %w", err)
		}
		token, err = s.issueToken(ctx, userID)
		if err != nil {
			return nil, err
		}
		result.Reissued = true
	default:
		token = record.Token
	}

	if err := s.submitWelcome(ctx, userID, token); err != nil {
		return nil, err
	}
	return result, nil
}

// CleanupExpiredTokens deletes non-activated tokens past their TTL and
// returns how many were removed.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-entity.TokenTTL)
	deleted, err := s.Tokens.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	s.logger().Info("expired activation tokens removed", slog.Int64("deleted", deleted))
	return deleted, nil
}

func (s *Service) issueToken(ctx context.Context, userID int64) (string, error) {
	token, err := entity.NewActivationToken(userID, s.now())
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	if err := s.Tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token.Token, nil
}

func (s *Service) submitWelcome(ctx context.Context, userID int64, token string) error {
	payload, err := json.Marshal(WelcomePayload{
		UserID:        userID,
		ActivationURL: s.Site.ActivationURL(token),
	})
	if err != nil {
		return fmt.Errorf("marshal welcome payload: %w", err)
	}
	jobID, err := s.Queue.Submit(ctx, JobSendWelcomeEmail, payload)
	if err != nil {
		return fmt.Errorf("submit welcome email: %w", err)
	}
	s.logger().Info("welcome email queued",
		slog.Int64("user_id", userID),
		slog.String("job_id", jobID))
	return nil
}

// HandleSendWelcomeEmail is the queue handler for the welcome email job.
func (s *Service) HandleSendWelcomeEmail(ctx context.Context, job queue.Job) error {
	var payload WelcomePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Terminal(fmt.Errorf("decode payload: %w", err))
	}
	user, err := s.fetchRecipient(ctx, payload.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	text, html, err := render(welcomeText, welcomeHTML, mailContext{
		Username:      user.Username,
		SiteName:      s.Site.Name,
		ActivationURL: payload.ActivationURL,
	})
	if err != nil {
		return queue.Terminal(err)
	}
	return s.Mailer.Send(ctx, mailer.Message{
		Subject:    welcomeSubject(s.Site.Name),
		TextBody:   text,
		HTMLBody:   html,
		Recipients: []string{user.Email},
	})
}

// HandleSendActivationSuccess is the queue handler for the activation
// confirmation email job.
func (s *Service) HandleSendActivationSuccess(ctx context.Context, job queue.Job) error {
	var payload SuccessPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Terminal(fmt.Errorf("decode payload: %w", err))
	}
	user, err := s.fetchRecipient(ctx, payload.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}

	text, html, err := render(successText, successHTML, mailContext{
		Username: user.Username,
		SiteName: s.Site.Name,
	})
	if err != nil {
		return queue.Terminal(err)
	}
	return s.Mailer.Send(ctx, mailer.Message{
		Subject:    successSubject(),
		TextBody:   text,
		HTMLBody:   html,
		Recipients: []string{user.Email},
	})
}

// fetchRecipient resolves a mail job's user. A vanished user or one without
// an email address drops the job without retries.
func (s *Service) fetchRecipient(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, queue.Terminal(fmt.Errorf("%w: id %d", ErrUserNotFound, userID))
	}
	if user.Email == "" {
		s.logger().Warn("mail job user has no email", slog.Int64("user_id", userID))
		return nil, nil
	}
	return user, nil
}
