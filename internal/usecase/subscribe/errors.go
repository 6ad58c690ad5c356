// Package subscribe manages category subscriptions: creation with
// (user, category) uniqueness and removal, each raising the matching
// domain event.
package subscribe

import "errors"

// Sentinel errors for subscription use case operations.
var (
	// ErrCategoryNotFound indicates that the target category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrSubscriptionNotFound indicates that no subscription exists for the
	// given (user, category) pair.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidSubscriber indicates that the user or category ID is not a
	// positive integer.
	ErrInvalidSubscriber = errors.New("invalid user or category ID")
)
