// Package repository defines the persistence interfaces consumed by the use
// case layer. Implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"newsportal/internal/domain/entity"
)

// PostRepository is the content store interface for posts and their
// category attachments.
type PostRepository interface {
	// Create persists a new post and fills in its generated ID.
	Create(ctx context.Context, post *entity.Post) error
	// Get retrieves a post by ID. Returns (nil, nil) when not found.
	Get(ctx context.Context, id int64) (*entity.Post, error)
	// ListByAuthorSince retrieves the author's posts created at or after the
	// given time, newest first.
	ListByAuthorSince(ctx context.Context, authorID int64, since time.Time) ([]*entity.Post, error)
	// CountByAuthorSince counts the author's posts of the given type created
	// at or after the given time.
	CountByAuthorSince(ctx context.Context, authorID int64, postType entity.PostType, since time.Time) (int, error)
	// ListByCategorySince retrieves posts of the given type attached to the
	// category and created at or after the given time, newest first.
	ListByCategorySince(ctx context.Context, categoryID int64, postType entity.PostType, since time.Time) ([]*entity.Post, error)
	// AttachCategories adds the post to the given categories. Attaching an
	// already attached category is a no-op.
	AttachCategories(ctx context.Context, postID int64, categoryIDs []int64) error
	// SetNotified flips the post's notifications-sent flag to true.
	SetNotified(ctx context.Context, postID int64) error
	// UpdateRating adjusts the post rating by delta (like +1, dislike -1).
	UpdateRating(ctx context.Context, postID int64, delta int) error
}

// CommentRepository persists post comments.
type CommentRepository interface {
	// Create persists a new comment and fills in its generated ID.
	Create(ctx context.Context, comment *entity.Comment) error
}
