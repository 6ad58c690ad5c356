package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"newsportal/internal/config"
	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/infra/queue"
)

// --- stubs ---

type stubUserRepo struct {
	users map[int64]*entity.User
	roles map[int64][]string
}

func (s *stubUserRepo) Get(_ context.Context, id int64) (*entity.User, error) {
	return s.users[id], nil
}
func (s *stubUserRepo) Create(_ context.Context, _ *entity.User) error { return nil }
func (s *stubUserRepo) AddRole(_ context.Context, userID int64, role string) error {
	if s.roles == nil {
		s.roles = map[int64][]string{}
	}
	s.roles[userID] = append(s.roles[userID], role)
	return nil
}
func (s *stubUserRepo) HasRole(_ context.Context, userID int64, role string) (bool, error) {
	for _, r := range s.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

type stubAuthorRepo struct {
	byUser  map[int64]*entity.Author
	created []int64
}

func (s *stubAuthorRepo) Get(_ context.Context, _ int64) (*entity.Author, error) {
	return nil, nil
}
func (s *stubAuthorRepo) GetByUser(_ context.Context, userID int64) (*entity.Author, error) {
	return s.byUser[userID], nil
}
func (s *stubAuthorRepo) Create(_ context.Context, author *entity.Author) error {
	s.created = append(s.created, author.UserID)
	return nil
}
func (s *stubAuthorRepo) RecalculateRating(_ context.Context, _ int64) (int, error) {
	return 0, nil
}

type stubTokenRepo struct {
	tokens  map[int64]*entity.ActivationToken // by ID
	nextID  int64
	deleted []int64
	swept   int64
	sweepAt time.Time
}

func (s *stubTokenRepo) Create(_ context.Context, token *entity.ActivationToken) error {
	if s.tokens == nil {
		s.tokens = map[int64]*entity.ActivationToken{}
	}
	s.nextID++
	token.ID = s.nextID
	s.tokens[token.ID] = token
	return nil
}
func (s *stubTokenRepo) GetByUser(_ context.Context, userID int64) (*entity.ActivationToken, error) {
	for _, t := range s.tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, nil
}
func (s *stubTokenRepo) GetByToken(_ context.Context, token string) (*entity.ActivationToken, error) {
	for _, t := range s.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, nil
}
func (s *stubTokenRepo) MarkActivated(_ context.Context, tokenID int64) error {
	t, ok := s.tokens[tokenID]
	if !ok {
		return errors.New("no such token")
	}
	t.Activated = true
	return nil
}
func (s *stubTokenRepo) Delete(_ context.Context, tokenID int64) error {
	s.deleted = append(s.deleted, tokenID)
	delete(s.tokens, tokenID)
	return nil
}
func (s *stubTokenRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.sweepAt = cutoff
	return s.swept, nil
}

type queueSpy struct {
	jobs []struct {
		kind    queue.Kind
		payload []byte
	}
}

func (q *queueSpy) Submit(_ context.Context, kind queue.Kind, payload []byte) (string, error) {
	q.jobs = append(q.jobs, struct {
		kind    queue.Kind
		payload []byte
	}{kind, payload})
	return "id", nil
}

type recordingMailer struct {
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

// --- fixtures ---

var accountNow = time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	users   *stubUserRepo
	authors *stubAuthorRepo
	tokens  *stubTokenRepo
	queue   *queueSpy
	mail    *recordingMailer
	bus     *event.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		users: &stubUserRepo{users: map[int64]*entity.User{
			7: {ID: 7, Username: "vasya", Email: "vasya@example.org"},
		}},
		authors: &stubAuthorRepo{byUser: map[int64]*entity.Author{}},
		tokens:  &stubTokenRepo{},
		queue:   &queueSpy{},
		mail:    &recordingMailer{},
		bus:     event.NewBus(logger),
	}
	f.svc = &Service{
		Users:   f.users,
		Authors: f.authors,
		Tokens:  f.tokens,
		Bus:     f.bus,
		Queue:   f.queue,
		Mailer:  f.mail,
		Site:    config.SiteConfig{Name: "News Portal", BaseURL: "https://portal.example.org"},
		Logger:  logger,
		Now:     func() time.Time { return accountNow },
	}
	f.svc.RegisterHandlers(f.bus)
	return f
}

func (f *fixture) pendingToken(t *testing.T, userID int64) *entity.ActivationToken {
	t.Helper()
	token, err := f.tokens.GetByUser(context.Background(), userID)
	if err != nil || token == nil {
		t.Fatalf("token for user %d: %v, %v", userID, token, err)
	}
	return token
}

// --- tests ---

func TestOnUserRegistered(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.OnUserRegistered(context.Background(), event.UserRegistered{UserID: 7}); err != nil {
		t.Fatalf("OnUserRegistered: %v", err)
	}

	if held, _ := f.users.HasRole(context.Background(), 7, entity.RoleCommon); !held {
		t.Error("common role must be assigned")
	}
	if len(f.authors.created) != 1 || f.authors.created[0] != 7 {
		t.Errorf("author shells created = %v", f.authors.created)
	}

	token := f.pendingToken(t, 7)
	if token.Activated || !token.CreatedAt.Equal(accountNow) || token.Token == "" {
		t.Errorf("token = %+v", token)
	}

	if len(f.queue.jobs) != 1 || f.queue.jobs[0].kind != JobSendWelcomeEmail {
		t.Fatalf("jobs = %+v", f.queue.jobs)
	}
	var p WelcomePayload
	if err := json.Unmarshal(f.queue.jobs[0].payload, &p); err != nil {
		t.Fatal(err)
	}
	want := "https://portal.example.org/accounts/activate/" + token.Token + "/"
	if p.UserID != 7 || p.ActivationURL != want {
		t.Errorf("payload = %+v, want URL %s", p, want)
	}
}

func TestRegisterHandlers_IgnoresPointerEvents(t *testing.T) {
	f := newFixture(t)

	buf := f.bus.Buffer()
	buf.Raise(&event.UserRegistered{UserID: 7})
	buf.Raise(&event.AccountActivated{UserID: 7})
	buf.Flush(context.Background())

	if len(f.queue.jobs) != 0 {
		t.Fatalf("jobs = %d, want none for pointer-shaped events", len(f.queue.jobs))
	}
	if token, _ := f.tokens.GetByUser(context.Background(), 7); token != nil {
		t.Error("no token should be issued for a pointer-shaped event")
	}
}

func TestOnUserRegistered_ExistingAuthorShellIsKept(t *testing.T) {
	f := newFixture(t)
	f.authors.byUser[7] = &entity.Author{ID: 3, UserID: 7}

	if err := f.svc.OnUserRegistered(context.Background(), event.UserRegistered{UserID: 7}); err != nil {
		t.Fatalf("OnUserRegistered: %v", err)
	}
	if len(f.authors.created) != 0 {
		t.Errorf("author shells created = %v, want none", f.authors.created)
	}
}

func TestActivate_PromotesAndQueuesSuccessEmail(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.OnUserRegistered(context.Background(), event.UserRegistered{UserID: 7}); err != nil {
		t.Fatal(err)
	}
	token := f.pendingToken(t, 7)
	f.queue.jobs = nil

	res, err := f.svc.Activate(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if res.UserID != 7 || res.AlreadyActivated {
		t.Errorf("result = %+v", res)
	}
	if !token.Activated {
		t.Error("token must be marked activated")
	}
	if held, _ := f.users.HasRole(context.Background(), 7, entity.RoleAuthors); !held {
		t.Error("authors role must be granted on activation")
	}
	if len(f.queue.jobs) != 1 || f.queue.jobs[0].kind != JobSendActivationSuccessEmail {
		t.Fatalf("jobs = %+v", f.queue.jobs)
	}
}

func TestActivate_AlreadyActivatedIsNoop(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.OnUserRegistered(context.Background(), event.UserRegistered{UserID: 7}); err != nil {
		t.Fatal(err)
	}
	token := f.pendingToken(t, 7)
	if _, err := f.svc.Activate(context.Background(), token.Token); err != nil {
		t.Fatal(err)
	}
	f.queue.jobs = nil

	res, err := f.svc.Activate(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("second Activate: %v", err)
	}
	if !res.AlreadyActivated {
		t.Error("second activation must report already activated")
	}
	if len(f.queue.jobs) != 0 {
		t.Errorf("jobs = %+v, re-activation must not queue anything", f.queue.jobs)
	}
}

func TestActivate_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	token, err := entity.NewActivationToken(7, accountNow.Add(-8*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.tokens.Create(context.Background(), token); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Activate(context.Background(), token.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
	if token.Activated {
		t.Error("expired token must not flip to activated")
	}
}

func TestActivate_UnknownToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Activate(context.Background(), "deadbeef"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestResendActivation_ValidTokenIsReused(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.OnUserRegistered(context.Background(), event.UserRegistered{UserID: 7}); err != nil {
		t.Fatal(err)
	}
	token := f.pendingToken(t, 7)
	f.queue.jobs = nil

	res, err := f.svc.ResendActivation(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResendActivation: %v", err)
	}
	if res.AlreadyActivated || res.Reissued {
		t.Errorf("result = %+v", res)
	}
	var p WelcomePayload
	if err := json.Unmarshal(f.queue.jobs[0].payload, &p); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.ActivationURL, token.Token) {
		t.Error("resend must reuse the still-valid token")
	}
}

func TestResendActivation_ExpiredTokenIsReplaced(t *testing.T) {
	f := newFixture(t)
	old, err := entity.NewActivationToken(7, accountNow.Add(-8*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.tokens.Create(context.Background(), old); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.ResendActivation(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResendActivation: %v", err)
	}
	if !res.Reissued {
		t.Error("expired token must be reissued")
	}
	if len(f.tokens.deleted) != 1 || f.tokens.deleted[0] != old.ID {
		t.Errorf("deleted = %v", f.tokens.deleted)
	}
	fresh := f.pendingToken(t, 7)
	if fresh.Token == old.Token {
		t.Error("reissued token must differ from the expired one")
	}
	var p WelcomePayload
	if err := json.Unmarshal(f.queue.jobs[0].payload, &p); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(p.ActivationURL, fresh.Token) {
		t.Error("welcome job must carry the fresh token")
	}
}

func TestResendActivation_AlreadyActivated(t *testing.T) {
	f := newFixture(t)
	token, err := entity.NewActivationToken(7, accountNow)
	if err != nil {
		t.Fatal(err)
	}
	token.Activated = true
	if err := f.tokens.Create(context.Background(), token); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.ResendActivation(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResendActivation: %v", err)
	}
	if !res.AlreadyActivated {
		t.Errorf("result = %+v", res)
	}
	if len(f.queue.jobs) != 0 {
		t.Errorf("jobs = %+v, activated account must not get a resend", f.queue.jobs)
	}
}

func TestResendActivation_MissingTokenIsReissued(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ResendActivation(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResendActivation: %v", err)
	}
	if !res.Reissued {
		t.Error("missing token must be reissued")
	}
	if len(f.queue.jobs) != 1 {
		t.Fatalf("jobs = %+v", f.queue.jobs)
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	f := newFixture(t)
	f.tokens.swept = 5

	deleted, err := f.svc.CleanupExpiredTokens(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredTokens: %v", err)
	}
	if deleted != 5 {
		t.Errorf("deleted = %d", deleted)
	}
	wantCutoff := accountNow.Add(-entity.TokenTTL)
	if !f.tokens.sweepAt.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", f.tokens.sweepAt, wantCutoff)
	}
}

func TestHandleSendWelcomeEmail(t *testing.T) {
	f := newFixture(t)
	payload, _ := json.Marshal(WelcomePayload{UserID: 7, ActivationURL: "https://portal.example.org/accounts/activate/abc/"})

	if err := f.svc.HandleSendWelcomeEmail(context.Background(), queue.Job{Payload: payload}); err != nil {
		t.Fatalf("HandleSendWelcomeEmail: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("sent = %d", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if !strings.Contains(msg.Subject, "Добро пожаловать") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "https://portal.example.org/accounts/activate/abc/") {
		t.Errorf("text body missing activation URL:\n%s", msg.TextBody)
	}
	if msg.Recipients[0] != "vasya@example.org" {
		t.Errorf("recipients = %v", msg.Recipients)
	}
}

func TestHandleSendActivationSuccess(t *testing.T) {
	f := newFixture(t)
	payload, _ := json.Marshal(SuccessPayload{UserID: 7})

	if err := f.svc.HandleSendActivationSuccess(context.Background(), queue.Job{Payload: payload}); err != nil {
		t.Fatalf("HandleSendActivationSuccess: %v", err)
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("sent = %d", len(f.mail.sent))
	}
	if !strings.Contains(f.mail.sent[0].Subject, "успешно активирован") {
		t.Errorf("subject = %q", f.mail.sent[0].Subject)
	}
}

func TestMailJobs_TerminalFailures(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.HandleSendWelcomeEmail(context.Background(), queue.Job{Payload: []byte("{")}); !queue.IsTerminal(err) {
		t.Errorf("bad payload: err = %v, want terminal", err)
	}

	payload, _ := json.Marshal(SuccessPayload{UserID: 404})
	if err := f.svc.HandleSendActivationSuccess(context.Background(), queue.Job{Payload: payload}); !queue.IsTerminal(err) {
		t.Errorf("vanished user: err = %v, want terminal", err)
	}
}
