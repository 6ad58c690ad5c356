package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"newsportal/internal/config"
	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/infra/queue"
	"newsportal/internal/repository"
)

// JobDispatchPost is the queue kind for post notification fan-out.
const JobDispatchPost queue.Kind = "notify.dispatch_post"

// DispatchPayload is the id-only job payload. The handler re-fetches the
// post, so replays always see current state.
type DispatchPayload struct {
	PostID int64 `json:"post_id"`
}

// RegisterSubmitter wires the bus to the queue: whenever a post is created
// or gains categories, a dispatch job is submitted. Submission failures are
// returned to the bus, which logs them; the mutation itself is already
// committed and unaffected.
func RegisterSubmitter(bus *event.Bus, q queue.Queue, logger *slog.Logger) {
	submit := func(ctx context.Context, postID int64) error {
		payload, err := json.Marshal(DispatchPayload{PostID: postID})
		if err != nil {
			return fmt.Errorf("marshal dispatch payload: %w", err)
		}
		jobID, err := q.Submit(ctx, JobDispatchPost, payload)
		if err != nil {
			return fmt.Errorf("submit dispatch job: %w", err)
		}
		logger.Info("dispatch job submitted",
			slog.String("job_id", jobID),
			slog.Int64("post_id", postID))
		return nil
	}

	bus.Subscribe(event.KindPostCreated, func(ctx context.Context, ev event.Event) error {
		e, ok := ev.(event.PostCreated)
		if !ok {
			return nil
		}
		return submit(ctx, e.PostID)
	})
	bus.Subscribe(event.KindCategoriesAttached, func(ctx context.Context, ev event.Event) error {
		e, ok := ev.(event.CategoriesAttached)
		if !ok {
			return nil
		}
		return submit(ctx, e.PostID)
	})
}

// Dispatcher executes dispatch jobs: it re-fetches the post, guards on the
// notifications-sent flag, fans out to every subscriber of every attached
// category, and only then persists the flag. Any send failure aborts the
// job with a retryable error before the flag is written, so a partial
// fan-out is re-run in full on redelivery.
type Dispatcher struct {
	Posts         repository.PostRepository
	Categories    repository.CategoryRepository
	Subscriptions repository.SubscriptionRepository
	Authors       repository.AuthorRepository
	Users         repository.UserRepository
	Mailer        mailer.Mailer
	Site          config.SiteConfig
	Logger        *slog.Logger
	Metrics       *Metrics

	// MaxConcurrent bounds parallel sends within one fan-out.
	// Zero means sequential.
	MaxConcurrent int
}

// HandleDispatchPost is the queue handler for JobDispatchPost.
func (d *Dispatcher) HandleDispatchPost(ctx context.Context, job queue.Job) error {
	var payload DispatchPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return queue.Terminal(fmt.Errorf("unmarshal dispatch payload: %w", err))
	}

	post, err := d.Posts.Get(ctx, payload.PostID)
	if err != nil {
		return fmt.Errorf("get post %d: %w", payload.PostID, err)
	}
	if post == nil {
		// The post vanished between submission and execution; a retry
		// can never succeed.
		d.Metrics.recordDispatch("failed")
		return queue.Terminal(fmt.Errorf("post %d: %w", payload.PostID, ErrPostNotFound))
	}

	if post.NotificationsSent {
		d.Logger.Info("notifications already sent, skipping",
			slog.Int64("post_id", post.ID))
		d.Metrics.recordDispatch("already_sent")
		return nil
	}

	authorName, err := d.authorName(ctx, post.AuthorID)
	if err != nil {
		return err
	}

	categories, err := d.Categories.ListByPost(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("list categories of post %d: %w", post.ID, err)
	}

	sent := 0
	for _, category := range categories {
		n, err := d.fanOut(ctx, post, category, authorName)
		sent += n
		if err != nil {
			d.Metrics.recordDispatch("failed")
			return fmt.Errorf("notify category %d subscribers: %w", category.ID, err)
		}
	}

	if err := d.Posts.SetNotified(ctx, post.ID); err != nil {
		// The fan-out completed; a retry re-sends, which at-least-once
		// delivery accepts.
		d.Metrics.recordDispatch("failed")
		return fmt.Errorf("mark post %d notified: %w", post.ID, err)
	}

	d.Logger.Info("post notifications dispatched",
		slog.Int64("post_id", post.ID),
		slog.String("post_type", string(post.Type)),
		slog.Int("categories", len(categories)),
		slog.Int("sent", sent))
	d.Metrics.recordDispatch("sent")
	return nil
}

// fanOut sends one notification per subscriber of the category, bounded by
// MaxConcurrent, and returns how many sends succeeded.
func (d *Dispatcher) fanOut(ctx context.Context, post *entity.Post, category *entity.Category, authorName string) (int, error) {
	subscribers, err := d.Subscriptions.ListSubscribers(ctx, category.ID)
	if err != nil {
		return 0, fmt.Errorf("list subscribers: %w", err)
	}

	subject := renderSubject(post.Type, category.Name)

	g, gctx := errgroup.WithContext(ctx)
	if d.MaxConcurrent > 0 {
		g.SetLimit(d.MaxConcurrent)
	} else {
		g.SetLimit(1)
	}

	eligible := 0
	for _, subscriber := range subscribers {
		if subscriber.Email == "" {
			continue
		}
		subscriber := subscriber
		eligible++
		g.Go(func() error {
			text, html, err := renderBodies(post.Type, templateContext{
				Username:       subscriber.Username,
				PostTitle:      post.Title,
				PostPreview:    post.Preview(),
				CategoryName:   category.Name,
				AuthorName:     authorName,
				PostDate:       post.CreatedAt.Format(postDateLayout),
				PostURL:        d.Site.PostURL(post.ID),
				UnsubscribeURL: d.Site.CategoryUnsubscribeURL(category.ID),
			})
			if err != nil {
				return err
			}

			msg := mailer.Message{
				Subject:    subject,
				TextBody:   text,
				HTMLBody:   html,
				Recipients: []string{subscriber.Email},
			}
			if err := d.Mailer.Send(gctx, msg); err != nil {
				d.Metrics.recordSend(string(post.Type), "failure")
				d.Logger.Warn("notification send failed",
					slog.Int64("post_id", post.ID),
					slog.Int64("user_id", subscriber.ID),
					slog.String("error", err.Error()))
				return fmt.Errorf("send to user %d: %w", subscriber.ID, err)
			}
			d.Metrics.recordSend(string(post.Type), "success")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return eligible, nil
}

// authorName resolves the display name behind a post's author ID.
func (d *Dispatcher) authorName(ctx context.Context, authorID int64) (string, error) {
	author, err := d.Authors.Get(ctx, authorID)
	if err != nil {
		return "", fmt.Errorf("get author %d: %w", authorID, err)
	}
	if author == nil {
		return "", queue.Terminal(fmt.Errorf("author %d: %w", authorID, ErrAuthorNotFound))
	}
	user, err := d.Users.Get(ctx, author.UserID)
	if err != nil {
		return "", fmt.Errorf("get user %d: %w", author.UserID, err)
	}
	if user == nil {
		return "", queue.Terminal(fmt.Errorf("user %d: %w", author.UserID, ErrAuthorNotFound))
	}
	return user.Username, nil
}
