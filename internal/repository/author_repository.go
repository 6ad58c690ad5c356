package repository

import (
	"context"

	"newsportal/internal/domain/entity"
)

// AuthorRepository is the content store interface for author profiles.
type AuthorRepository interface {
	// Get retrieves an author profile by its ID.
	// Returns (nil, nil) when no such profile exists.
	Get(ctx context.Context, id int64) (*entity.Author, error)
	// GetByUser retrieves the author profile for a user.
	// Returns (nil, nil) when the user has no profile yet.
	GetByUser(ctx context.Context, userID int64) (*entity.Author, error)
	// Create persists a new author profile and fills in its generated ID.
	Create(ctx context.Context, author *entity.Author) error
	// RecalculateRating recomputes and persists the author rating from the
	// author's post and comment scores, returning the new value.
	RecalculateRating(ctx context.Context, authorID int64) (int, error)
}
