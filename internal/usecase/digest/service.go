// Package digest implements the weekly article digest: a periodic scan over
// all subscriptions that mails each due subscriber the articles published in
// their category since the last digest, advancing a per-subscription cursor
// only when a digest was actually sent.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsportal/internal/config"
	"newsportal/internal/domain/entity"
	"newsportal/internal/infra/mailer"
	"newsportal/internal/repository"
)

// Stats summarizes one digest run.
type Stats struct {
	Scanned      int
	Sent         int
	SkippedFresh int
	SkippedEmpty int
	Errors       int
	Duration     time.Duration
}

// Service runs the weekly digest scan.
type Service struct {
	Subscriptions repository.SubscriptionRepository
	Categories    repository.CategoryRepository
	Posts         repository.PostRepository
	Users         repository.UserRepository
	Mailer        mailer.Mailer
	Site          config.SiteConfig
	Logger        *slog.Logger
	Now           func() time.Time
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

// RunWeeklyDigest scans every subscription once. A subscription is due when
// its cursor is nil or older than the digest interval; a due subscription
// with no new articles in the window is skipped without touching the cursor,
// so the next digest still covers the quiet period. Per-subscription failures
// are logged and counted but never abort the run.
func (s *Service) RunWeeklyDigest(ctx context.Context) (*Stats, error) {
	started := s.now()
	log := s.logger()

	subs, err := s.Subscriptions.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	stats := &Stats{Scanned: len(subs)}
	for _, sub := range subs {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if !sub.NeedsWeeklyDigest(started) {
			stats.SkippedFresh++
			continue
		}
		sent, err := s.dispatchOne(ctx, sub, started)
		switch {
		case err != nil:
			stats.Errors++
			log.Warn("digest dispatch failed",
				slog.Int64("subscription_id", sub.ID),
				slog.Int64("category_id", sub.CategoryID),
				slog.Any("error", err))
		case sent:
			stats.Sent++
		default:
			stats.SkippedEmpty++
		}
	}

	stats.Duration = time.Since(started)
	log.Info("weekly digest run finished",
		slog.Int("scanned", stats.Scanned),
		slog.Int("sent", stats.Sent),
		slog.Int("skipped_fresh", stats.SkippedFresh),
		slog.Int("skipped_empty", stats.SkippedEmpty),
		slog.Int("errors", stats.Errors),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// dispatchOne handles a single due subscription. It reports sent=false with a
// nil error when there was nothing to digest.
func (s *Service) dispatchOne(ctx context.Context, sub *entity.Subscription, now time.Time) (sent bool, err error) {
	since := now.Add(-entity.DigestInterval)
	posts, err := s.Posts.ListByCategorySince(ctx, sub.CategoryID, entity.Article, since)
	if err != nil {
		return false, fmt.Errorf("list articles: %w", err)
	}
	if len(posts) == 0 {
		return false, nil
	}

	user, err := s.Users.Get(ctx, sub.UserID)
	if err != nil {
		return false, fmt.Errorf("get user %d: %w", sub.UserID, err)
	}
	if user == nil || user.Email == "" {
		s.logger().Warn("digest subscriber unreachable",
			slog.Int64("subscription_id", sub.ID),
			slog.Int64("user_id", sub.UserID))
		return false, nil
	}

	category, err := s.Categories.Get(ctx, sub.CategoryID)
	if err != nil {
		return false, fmt.Errorf("get category %d: %w", sub.CategoryID, err)
	}
	if category == nil {
		return false, fmt.Errorf("category %d vanished", sub.CategoryID)
	}

	items := make([]digestItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, digestItem{
			Title:   post.Title,
			Date:    post.CreatedAt.Format(weekDateLayout),
			Preview: post.Preview(),
			URL:     s.Site.PostURL(post.ID),
		})
	}
	text, html, err := renderBodies(digestContext{
		Username:       user.Username,
		CategoryName:   category.Name,
		WeekStart:      since.Format(weekDateLayout),
		WeekEnd:        now.Format(weekDateLayout),
		Items:          items,
		UnsubscribeURL: s.Site.CategoryUnsubscribeURL(category.ID),
	})
	if err != nil {
		return false, err
	}

	msg := mailer.Message{
		Subject:    renderSubject(category.Name),
		TextBody:   text,
		HTMLBody:   html,
		Recipients: []string{user.Email},
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send digest: %w", err)
	}

	// The cursor advances only after a successful send. If this update
	// fails the subscriber may get the same digest again next run;
	// duplicates are accepted over silent loss.
	if err := s.Subscriptions.UpdateCursor(ctx, sub.ID, now); err != nil {
		s.logger().Warn("digest cursor update failed",
			slog.Int64("subscription_id", sub.ID),
			slog.Any("error", err))
	}
	return true, nil
}
