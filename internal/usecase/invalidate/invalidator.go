// Package invalidate evicts read-cache keys in response to domain events.
// Eviction is best effort: the mutation that raised the event has already
// committed, so a failed eviction is logged and dropped, never retried, and
// the stale entry ages out with its TTL.
package invalidate

import (
	"context"
	"log/slog"

	"newsportal/internal/domain/event"
	"newsportal/internal/infra/cache"
)

// Invalidator subscribes to mutation events and evicts the affected keys.
type Invalidator struct {
	Cache   cache.Client
	Logger  *slog.Logger
	Metrics *Metrics
}

// New creates an invalidator over the given cache.
func New(c cache.Client, logger *slog.Logger, metrics *Metrics) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{Cache: c, Logger: logger, Metrics: metrics}
}

// RegisterHandlers subscribes the invalidator to every event kind it
// handles.
func (inv *Invalidator) RegisterHandlers(bus *event.Bus) {
	bus.Subscribe(event.KindPostCreated, inv.onPostMutated)
	bus.Subscribe(event.KindCategoriesAttached, inv.onPostMutated)
	bus.Subscribe(event.KindCommentCreated, inv.onCommentCreated)
	bus.Subscribe(event.KindSubscriptionCreated, inv.onSubscriptionChanged)
	bus.Subscribe(event.KindSubscriptionRemoved, inv.onSubscriptionChanged)
}

func (inv *Invalidator) onPostMutated(ctx context.Context, ev event.Event) error {
	var postID int64
	var categoryIDs []int64
	switch e := ev.(type) {
	case event.PostCreated:
		postID, categoryIDs = e.PostID, e.CategoryIDs
	case event.CategoriesAttached:
		postID, categoryIDs = e.PostID, e.CategoryIDs
	default:
		return nil
	}

	keys := []string{
		cache.PostDetailKey(postID),
		cache.PostListKey(),
		cache.PostSearchKey(),
	}
	for _, categoryID := range categoryIDs {
		keys = append(keys, cache.CategoryListingKey(categoryID))
	}
	inv.evict(ctx, keys)
	return nil
}

func (inv *Invalidator) onCommentCreated(ctx context.Context, ev event.Event) error {
	e, ok := ev.(event.CommentCreated)
	if !ok {
		return nil
	}
	inv.evict(ctx, []string{
		cache.PostCommentsKey(e.PostID),
		cache.PostDetailKey(e.PostID),
	})
	return nil
}

func (inv *Invalidator) onSubscriptionChanged(ctx context.Context, ev event.Event) error {
	var userID, categoryID int64
	switch e := ev.(type) {
	case event.SubscriptionCreated:
		userID, categoryID = e.UserID, e.CategoryID
	case event.SubscriptionRemoved:
		userID, categoryID = e.UserID, e.CategoryID
	default:
		return nil
	}
	inv.evict(ctx, []string{
		cache.UserSubscriptionsKey(userID),
		cache.CategorySubscriberCountKey(categoryID),
	})
	return nil
}

// evict deletes each key, logging and counting failures without aborting.
func (inv *Invalidator) evict(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := inv.Cache.Delete(ctx, key); err != nil {
			inv.Metrics.recordFailure()
			inv.Logger.Warn("cache eviction failed",
				slog.String("key", key),
				slog.Any("error", err))
			continue
		}
		inv.Metrics.recordEviction()
	}
}
