package repository

import (
	"context"

	"newsportal/internal/domain/entity"
)

// CategoryRepository is the content store interface for categories.
type CategoryRepository interface {
	// Get retrieves a category by ID. Returns (nil, nil) when not found.
	Get(ctx context.Context, id int64) (*entity.Category, error)
	// ListByPost retrieves the categories currently attached to a post.
	ListByPost(ctx context.Context, postID int64) ([]*entity.Category, error)
	// Create persists a new category and fills in its generated ID.
	Create(ctx context.Context, category *entity.Category) error
}
