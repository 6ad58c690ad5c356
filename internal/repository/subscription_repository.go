package repository

import (
	"context"
	"time"

	"newsportal/internal/domain/entity"
)

// SubscriptionRepository is the content store interface for category
// subscriptions and their digest cursors.
type SubscriptionRepository interface {
	// Create persists a new subscription and fills in its generated ID.
	// The (user, category) pair is unique in the store.
	Create(ctx context.Context, sub *entity.Subscription) error
	// GetByUserAndCategory retrieves the subscription for the pair.
	// Returns (nil, nil) when not found.
	GetByUserAndCategory(ctx context.Context, userID, categoryID int64) (*entity.Subscription, error)
	// ListAll retrieves every subscription, for digest scanning.
	ListAll(ctx context.Context) ([]*entity.Subscription, error)
	// ListSubscribers retrieves the users subscribed to a category.
	ListSubscribers(ctx context.Context, categoryID int64) ([]*entity.User, error)
	// UpdateCursor sets the subscription's last-weekly-sent time.
	UpdateCursor(ctx context.Context, subscriptionID int64, sentAt time.Time) error
	// Delete removes a subscription.
	Delete(ctx context.Context, subscriptionID int64) error
}
