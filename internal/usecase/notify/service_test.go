package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"newsportal/internal/config"
	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/infra/queue"
)

// --- stubs ---

type stubPostRepo struct {
	posts    map[int64]*entity.Post
	notified map[int64]bool
	err      error
}

func (s *stubPostRepo) Create(_ context.Context, p *entity.Post) error { return s.err }
func (s *stubPostRepo) Get(_ context.Context, id int64) (*entity.Post, error) {
	return s.posts[id], s.err
}
func (s *stubPostRepo) ListByAuthorSince(_ context.Context, _ int64, _ time.Time) ([]*entity.Post, error) {
	return nil, s.err
}
func (s *stubPostRepo) CountByAuthorSince(_ context.Context, _ int64, _ entity.PostType, _ time.Time) (int, error) {
	return 0, s.err
}
func (s *stubPostRepo) ListByCategorySince(_ context.Context, _ int64, _ entity.PostType, _ time.Time) ([]*entity.Post, error) {
	return nil, s.err
}
func (s *stubPostRepo) AttachCategories(_ context.Context, _ int64, _ []int64) error { return s.err }
func (s *stubPostRepo) SetNotified(_ context.Context, postID int64) error {
	if s.err != nil {
		return s.err
	}
	s.notified[postID] = true
	s.posts[postID].NotificationsSent = true
	return nil
}
func (s *stubPostRepo) UpdateRating(_ context.Context, _ int64, _ int) error { return s.err }

type stubCategoryRepo struct {
	byPost map[int64][]*entity.Category
}

func (s *stubCategoryRepo) Get(_ context.Context, _ int64) (*entity.Category, error) {
	return nil, nil
}
func (s *stubCategoryRepo) ListByPost(_ context.Context, postID int64) ([]*entity.Category, error) {
	return s.byPost[postID], nil
}
func (s *stubCategoryRepo) Create(_ context.Context, _ *entity.Category) error { return nil }

type stubSubRepo struct {
	byCategory map[int64][]*entity.User
}

func (s *stubSubRepo) Create(_ context.Context, _ *entity.Subscription) error { return nil }
func (s *stubSubRepo) GetByUserAndCategory(_ context.Context, _, _ int64) (*entity.Subscription, error) {
	return nil, nil
}
func (s *stubSubRepo) ListAll(_ context.Context) ([]*entity.Subscription, error) { return nil, nil }
func (s *stubSubRepo) ListSubscribers(_ context.Context, categoryID int64) ([]*entity.User, error) {
	return s.byCategory[categoryID], nil
}
func (s *stubSubRepo) UpdateCursor(_ context.Context, _ int64, _ time.Time) error { return nil }
func (s *stubSubRepo) Delete(_ context.Context, _ int64) error                    { return nil }

type stubAuthorRepo struct {
	authors map[int64]*entity.Author
}

func (s *stubAuthorRepo) Get(_ context.Context, id int64) (*entity.Author, error) {
	return s.authors[id], nil
}
func (s *stubAuthorRepo) GetByUser(_ context.Context, _ int64) (*entity.Author, error) {
	return nil, nil
}
func (s *stubAuthorRepo) Create(_ context.Context, _ *entity.Author) error { return nil }
func (s *stubAuthorRepo) RecalculateRating(_ context.Context, _ int64) (int, error) {
	return 0, nil
}

type stubUserRepo struct {
	users map[int64]*entity.User
}

func (s *stubUserRepo) Get(_ context.Context, id int64) (*entity.User, error) {
	return s.users[id], nil
}
func (s *stubUserRepo) Create(_ context.Context, _ *entity.User) error          { return nil }
func (s *stubUserRepo) AddRole(_ context.Context, _ int64, _ string) error      { return nil }
func (s *stubUserRepo) HasRole(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}

// recordingMailer captures sent messages; failFor makes sends to that
// recipient fail.
type recordingMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor string
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rcpt := range msg.Recipients {
		if rcpt == m.failFor {
			return &mailer.DeliveryError{Err: errors.New("smtp unavailable")}
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.sent {
		out = append(out, msg.Recipients...)
	}
	return out
}

// --- fixtures ---

func testDispatcher(posts *stubPostRepo, m *recordingMailer) *Dispatcher {
	return &Dispatcher{
		Posts: posts,
		Categories: &stubCategoryRepo{byPost: map[int64][]*entity.Category{
			1: {{ID: 10, Name: "Tech"}},
		}},
		Subscriptions: &stubSubRepo{byCategory: map[int64][]*entity.User{
			10: {
				{ID: 101, Username: "u1", Email: "u1@example.org"},
				{ID: 102, Username: "u2", Email: "u2@example.org"},
			},
		}},
		Authors:       &stubAuthorRepo{authors: map[int64]*entity.Author{5: {ID: 5, UserID: 50}}},
		Users:         &stubUserRepo{users: map[int64]*entity.User{50: {ID: 50, Username: "writer"}}},
		Mailer:        m,
		Site:          config.SiteConfig{Name: "News Portal", BaseURL: "https://portal.example.org"},
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		MaxConcurrent: 4,
	}
}

func newsPost() *entity.Post {
	return &entity.Post{
		ID:        1,
		AuthorID:  5,
		Type:      entity.News,
		Title:     "breaking",
		Content:   "something happened",
		CreatedAt: time.Date(2025, 6, 2, 15, 4, 0, 0, time.UTC),
	}
}

func dispatchJob(t *testing.T, postID int64) queue.Job {
	t.Helper()
	payload, err := json.Marshal(DispatchPayload{PostID: postID})
	if err != nil {
		t.Fatal(err)
	}
	return queue.Job{ID: "job-1", Kind: JobDispatchPost, Payload: payload}
}

// --- tests ---

func TestHandleDispatchPost_FansOutAndMarksSent(t *testing.T) {
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: newsPost()}, notified: map[int64]bool{}}
	m := &recordingMailer{}
	d := testDispatcher(posts, m)

	if err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1)); err != nil {
		t.Fatalf("HandleDispatchPost: %v", err)
	}

	rcpts := m.recipients()
	if len(rcpts) != 2 {
		t.Fatalf("recipients = %v, want u1 and u2", rcpts)
	}
	if !posts.notified[1] {
		t.Error("notificationsSent flag must be persisted after full fan-out")
	}

	msg := m.sent[0]
	if !strings.Contains(msg.Subject, "Новая новость") || !strings.Contains(msg.Subject, "Tech") {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.TextBody, "https://portal.example.org/news/1/") {
		t.Errorf("text body missing post URL:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "/news/category/10/unsubscribe/") {
		t.Errorf("text body missing unsubscribe URL:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "writer") {
		t.Errorf("text body missing author name:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.TextBody, "02.06.2025 в 15:04") {
		t.Errorf("text body missing formatted date:\n%s", msg.TextBody)
	}
	if msg.HTMLBody == "" {
		t.Error("HTML alternative missing")
	}
}

func TestHandleDispatchPost_ArticleUsesArticleSubject(t *testing.T) {
	post := newsPost()
	post.Type = entity.Article
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: post}, notified: map[int64]bool{}}
	m := &recordingMailer{}
	d := testDispatcher(posts, m)

	if err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1)); err != nil {
		t.Fatalf("HandleDispatchPost: %v", err)
	}
	if len(m.sent) == 0 {
		t.Fatal("nothing sent")
	}
	if !strings.Contains(m.sent[0].Subject, "Новая статья") {
		t.Errorf("subject = %q, want article prefix", m.sent[0].Subject)
	}
}

func TestHandleDispatchPost_AlreadySentIsNoop(t *testing.T) {
	post := newsPost()
	post.NotificationsSent = true
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: post}, notified: map[int64]bool{}}
	m := &recordingMailer{}
	d := testDispatcher(posts, m)

	if err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1)); err != nil {
		t.Fatalf("HandleDispatchPost: %v", err)
	}
	if len(m.sent) != 0 {
		t.Errorf("sent = %d, flag guard must suppress all sends", len(m.sent))
	}
}

func TestHandleDispatchPost_MissingPostIsTerminal(t *testing.T) {
	posts := &stubPostRepo{posts: map[int64]*entity.Post{}, notified: map[int64]bool{}}
	d := testDispatcher(posts, &recordingMailer{})

	err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 404))
	if !queue.IsTerminal(err) {
		t.Errorf("err = %v, vanished post must fail terminally", err)
	}
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestHandleDispatchPost_BadPayloadIsTerminal(t *testing.T) {
	posts := &stubPostRepo{posts: map[int64]*entity.Post{}, notified: map[int64]bool{}}
	d := testDispatcher(posts, &recordingMailer{})

	err := d.HandleDispatchPost(context.Background(), queue.Job{Payload: []byte("{")})
	if !queue.IsTerminal(err) {
		t.Errorf("err = %v, malformed payload must fail terminally", err)
	}
}

func TestHandleDispatchPost_PartialFailureKeepsFlagUnset(t *testing.T) {
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: newsPost()}, notified: map[int64]bool{}}
	m := &recordingMailer{failFor: "u2@example.org"}
	d := testDispatcher(posts, m)

	err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1))
	if err == nil {
		t.Fatal("expected error from failed send")
	}
	if queue.IsTerminal(err) {
		t.Errorf("err = %v, transport failure must stay retryable", err)
	}
	if posts.notified[1] {
		t.Error("flag must not be set after a partial fan-out")
	}
}

func TestHandleDispatchPost_SkipsSubscribersWithoutEmail(t *testing.T) {
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: newsPost()}, notified: map[int64]bool{}}
	m := &recordingMailer{}
	d := testDispatcher(posts, m)
	d.Subscriptions = &stubSubRepo{byCategory: map[int64][]*entity.User{
		10: {
			{ID: 101, Username: "u1", Email: "u1@example.org"},
			{ID: 102, Username: "no-mail"},
		},
	}}

	if err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1)); err != nil {
		t.Fatalf("HandleDispatchPost: %v", err)
	}
	if len(m.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(m.sent))
	}
	if !posts.notified[1] {
		t.Error("flag must still be set")
	}
}

func TestPreviewTruncationInBody(t *testing.T) {
	post := newsPost()
	post.Content = strings.Repeat("я", 300)
	posts := &stubPostRepo{posts: map[int64]*entity.Post{1: post}, notified: map[int64]bool{}}
	m := &recordingMailer{}
	d := testDispatcher(posts, m)

	if err := d.HandleDispatchPost(context.Background(), dispatchJob(t, 1)); err != nil {
		t.Fatalf("HandleDispatchPost: %v", err)
	}
	want := strings.Repeat("я", entity.PreviewLength) + "..."
	if !strings.Contains(m.sent[0].TextBody, want) {
		t.Error("body must carry the 124-character preview with ellipsis")
	}
}

// queueSpy records submissions.
type queueSpy struct {
	mu   sync.Mutex
	jobs []struct {
		kind    queue.Kind
		payload []byte
	}
}

func (q *queueSpy) Submit(_ context.Context, kind queue.Kind, payload []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, struct {
		kind    queue.Kind
		payload []byte
	}{kind, payload})
	return "id", nil
}

func TestRegisterSubmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := event.NewBus(logger)
	spy := &queueSpy{}
	RegisterSubmitter(bus, spy, logger)

	buf := bus.Buffer()
	buf.Raise(event.PostCreated{PostID: 7, CategoryIDs: []int64{10}})
	buf.Raise(event.CategoriesAttached{PostID: 7, CategoryIDs: []int64{11}})
	buf.Flush(context.Background())

	if len(spy.jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(spy.jobs))
	}
	for _, job := range spy.jobs {
		if job.kind != JobDispatchPost {
			t.Errorf("kind = %s", job.kind)
		}
		var p DispatchPayload
		if err := json.Unmarshal(job.payload, &p); err != nil || p.PostID != 7 {
			t.Errorf("payload = %s", job.payload)
		}
	}
}

func TestRegisterSubmitter_IgnoresPointerEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := event.NewBus(logger)
	spy := &queueSpy{}
	RegisterSubmitter(bus, spy, logger)

	buf := bus.Buffer()
	buf.Raise(&event.PostCreated{PostID: 7, CategoryIDs: []int64{10}})
	buf.Raise(&event.CategoriesAttached{PostID: 7, CategoryIDs: []int64{11}})
	buf.Flush(context.Background())

	if len(spy.jobs) != 0 {
		t.Fatalf("jobs = %d, want none for pointer-shaped events", len(spy.jobs))
	}
}
