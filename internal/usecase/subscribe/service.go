package subscribe

import (
	"context"
	"fmt"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/repository"
)

// Service provides subscription management use cases.
type Service struct {
	Subscriptions repository.SubscriptionRepository
	Categories    repository.CategoryRepository
	Bus           *event.Bus

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Subscribe creates a subscription of the user to the category. The
// (user, category) pair is unique: subscribing twice returns the existing
// subscription without error and without raising another event.
func (s *Service) Subscribe(ctx context.Context, userID, categoryID int64) (*entity.Subscription, error) {
	if userID <= 0 || categoryID <= 0 {
		return nil, ErrInvalidSubscriber
	}

	category, err := s.Categories.Get(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	existing, err := s.Subscriptions.GetByUserAndCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	sub := &entity.Subscription{
		UserID:       userID,
		CategoryID:   categoryID,
		SubscribedAt: s.now(),
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Subscriptions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	buf.Raise(event.SubscriptionCreated{UserID: userID, CategoryID: categoryID})
	buf.Flush(ctx)
	return sub, nil
}

// Unsubscribe removes the user's subscription to the category and raises
// SubscriptionRemoved. Removing an absent subscription fails with
// ErrSubscriptionNotFound.
func (s *Service) Unsubscribe(ctx context.Context, userID, categoryID int64) error {
	if userID <= 0 || categoryID <= 0 {
		return ErrInvalidSubscriber
	}

	sub, err := s.Subscriptions.GetByUserAndCategory(ctx, userID, categoryID)
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Subscriptions.Delete(ctx, sub.ID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	buf.Raise(event.SubscriptionRemoved{UserID: userID, CategoryID: categoryID})
	buf.Flush(ctx)
	return nil
}
