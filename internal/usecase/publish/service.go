package publish

import (
	"context"
	"fmt"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/domain/event"
	"newsportal/internal/repository"
)

// CreatePostInput represents the input parameters for publishing a post.
type CreatePostInput struct {
	AuthorID    int64
	Type        entity.PostType
	Title       string
	Content     string
	CategoryIDs []int64
}

// CreateCommentInput represents the input parameters for adding a comment.
type CreateCommentInput struct {
	PostID int64
	UserID int64
	Text   string
}

// Service provides the publication use cases. It enforces the daily NEWS
// limit before anything is persisted, and raises domain events that are
// flushed only after the mutation has fully succeeded.
type Service struct {
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Authors  repository.AuthorRepository
	Bus      *event.Bus

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// AuthorizePublication checks whether the author may publish a post of the
// given type at the given moment. Posts that are not NEWS are always
// allowed. NEWS posts are limited to entity.DailyNewsLimit per calendar day
// in now's timezone; when the limit is reached the returned error is an
// *entity.RateLimitError carrying the current count.
//
// The check-then-create sequence is not atomic against concurrent
// publications by the same author; the limit is best-effort.
func (s *Service) AuthorizePublication(ctx context.Context, authorID int64, postType entity.PostType, now time.Time) error {
	if postType != entity.News {
		return nil
	}

	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	count, err := s.Posts.CountByAuthorSince(ctx, authorID, entity.News, startOfDay)
	if err != nil {
		return fmt.Errorf("count news posts: %w", err)
	}
	if count >= entity.DailyNewsLimit {
		return &entity.RateLimitError{Count: count}
	}
	return nil
}

// CreatePost validates and persists a new post with its categories, then
// raises PostCreated. The event is flushed only after every write has
// succeeded; on any failure buffered events are discarded.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (*entity.Post, error) {
	post := &entity.Post{
		AuthorID:  in.AuthorID,
		Type:      in.Type,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: s.now(),
	}
	if err := post.Validate(); err != nil {
		return nil, err
	}
	if len(in.CategoryIDs) == 0 {
		return nil, ErrNoCategories
	}

	if err := s.AuthorizePublication(ctx, in.AuthorID, in.Type, post.CreatedAt); err != nil {
		return nil, err
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if err := s.Posts.AttachCategories(ctx, post.ID, in.CategoryIDs); err != nil {
		return nil, fmt.Errorf("attach categories: %w", err)
	}

	buf.Raise(event.PostCreated{PostID: post.ID, CategoryIDs: in.CategoryIDs})
	buf.Flush(ctx)
	return post, nil
}

// AttachCategories adds categories to an existing post and raises
// CategoriesAttached.
func (s *Service) AttachCategories(ctx context.Context, postID int64, categoryIDs []int64) error {
	if postID <= 0 {
		return ErrInvalidPostID
	}
	if len(categoryIDs) == 0 {
		return ErrNoCategories
	}

	post, err := s.Posts.Get(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return ErrPostNotFound
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Posts.AttachCategories(ctx, postID, categoryIDs); err != nil {
		return fmt.Errorf("attach categories: %w", err)
	}

	buf.Raise(event.CategoriesAttached{PostID: postID, CategoryIDs: categoryIDs})
	buf.Flush(ctx)
	return nil
}

// AddComment persists a comment on a post and raises CommentCreated.
func (s *Service) AddComment(ctx context.Context, in CreateCommentInput) (*entity.Comment, error) {
	if in.PostID <= 0 {
		return nil, ErrInvalidPostID
	}
	if in.UserID <= 0 {
		return nil, &entity.ValidationError{Field: "userID", Message: "must be positive"}
	}
	if in.Text == "" {
		return nil, &entity.ValidationError{Field: "text", Message: "is required"}
	}

	post, err := s.Posts.Get(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	comment := &entity.Comment{
		PostID:    in.PostID,
		UserID:    in.UserID,
		Text:      in.Text,
		CreatedAt: s.now(),
	}

	buf := s.Bus.Buffer()
	defer buf.Discard()

	if err := s.Comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	buf.Raise(event.CommentCreated{PostID: in.PostID})
	buf.Flush(ctx)
	return comment, nil
}

// RatePost applies a like (+1) or dislike (-1) to a post and refreshes the
// author's cached rating.
func (s *Service) RatePost(ctx context.Context, postID int64, delta int) error {
	if postID <= 0 {
		return ErrInvalidPostID
	}
	if delta != 1 && delta != -1 {
		return &entity.ValidationError{Field: "delta", Message: "must be +1 or -1"}
	}

	post, err := s.Posts.Get(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return ErrPostNotFound
	}

	if err := s.Posts.UpdateRating(ctx, postID, delta); err != nil {
		return fmt.Errorf("update post rating: %w", err)
	}
	if _, err := s.Authors.RecalculateRating(ctx, post.AuthorID); err != nil {
		return fmt.Errorf("recalculate author rating: %w", err)
	}
	return nil
}
