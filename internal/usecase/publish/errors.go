// Package publish provides the post creation path: the daily NEWS
// publication limit, category attachment, comment creation, and the domain
// events raised by each mutation.
package publish

import "errors"

// Sentinel errors for publish use case operations.
var (
	// ErrPostNotFound indicates that the referenced post does not exist.
	ErrPostNotFound = errors.New("post not found")

	// ErrInvalidPostID indicates that the provided post ID is invalid.
	// Post IDs must be positive integers.
	ErrInvalidPostID = errors.New("invalid post ID")

	// ErrNoCategories indicates that a post was submitted without any
	// category. Every post must belong to at least one category so that
	// subscribers can be notified.
	ErrNoCategories = errors.New("post must have at least one category")
)
