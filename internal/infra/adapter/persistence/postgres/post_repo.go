// Package postgres contains the PostgreSQL implementations of the repository
// interfaces. Queries use database/sql over the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) repository.PostRepository {
	return &PostRepo{db: db}
}

func (repo *PostRepo) Create(ctx context.Context, post *entity.Post) error {
	const query = `
INSERT INTO posts
       (author_id, post_type, title, content, rating, notifications_sent, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		post.AuthorID, string(post.Type), post.Title, post.Content,
		post.Rating, post.NotificationsSent, post.CreatedAt, post.UpdatedAt,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *PostRepo) Get(ctx context.Context, id int64) (*entity.Post, error) {
	const query = `
SELECT id, author_id, post_type, title, content, rating, notifications_sent, created_at, updated_at
FROM posts
WHERE id = $1
LIMIT 1`
	var post entity.Post
	var postType string
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&post.ID, &post.AuthorID, &postType, &post.Title, &post.Content,
			&post.Rating, &post.NotificationsSent, &post.CreatedAt, &post.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	post.Type = entity.PostType(postType)
	return &post, nil
}

func (repo *PostRepo) ListByAuthorSince(ctx context.Context, authorID int64, since time.Time) ([]*entity.Post, error) {
	const query = `
SELECT id, author_id, post_type, title, content, rating, notifications_sent, created_at, updated_at
FROM posts
WHERE author_id = $1
  AND created_at >= $2
ORDER BY created_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, authorID, since)
	if err != nil {
		return nil, fmt.Errorf("ListByAuthorSince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPosts(rows, "ListByAuthorSince")
}

func (repo *PostRepo) CountByAuthorSince(ctx context.Context, authorID int64, postType entity.PostType, since time.Time) (int, error) {
	const query = `
SELECT COUNT(*)
FROM posts
WHERE author_id = $1
  AND post_type = $2
  AND created_at >= $3`
	var count int
	err := repo.db.QueryRowContext(ctx, query, authorID, string(postType), since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("CountByAuthorSince: %w", err)
	}
	return count, nil
}

func (repo *PostRepo) ListByCategorySince(ctx context.Context, categoryID int64, postType entity.PostType, since time.Time) ([]*entity.Post, error) {
	const query = `
SELECT p.id, p.author_id, p.post_type, p.title, p.content, p.rating, p.notifications_sent, p.created_at, p.updated_at
FROM posts p
INNER JOIN post_categories pc ON pc.post_id = p.id
WHERE pc.category_id = $1
  AND p.post_type = $2
  AND p.created_at >= $3
ORDER BY p.created_at DESC`
	rows, err := repo.db.QueryContext(ctx, query, categoryID, string(postType), since)
	if err != nil {
		return nil, fmt.Errorf("ListByCategorySince: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPosts(rows, "ListByCategorySince")
}

func (repo *PostRepo) AttachCategories(ctx context.Context, postID int64, categoryIDs []int64) error {
	const query = `
INSERT INTO post_categories (post_id, category_id)
VALUES ($1, $2)
ON CONFLICT (post_id, category_id) DO NOTHING`
	for _, categoryID := range categoryIDs {
		if _, err := repo.db.ExecContext(ctx, query, postID, categoryID); err != nil {
			return fmt.Errorf("AttachCategories: %w", err)
		}
	}
	return nil
}

func (repo *PostRepo) SetNotified(ctx context.Context, postID int64) error {
	const query = `UPDATE posts SET notifications_sent = TRUE WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, postID)
	if err != nil {
		return fmt.Errorf("SetNotified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetNotified: no rows affected")
	}
	return nil
}

func (repo *PostRepo) UpdateRating(ctx context.Context, postID int64, delta int) error {
	const query = `UPDATE posts SET rating = rating + $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, delta, postID)
	if err != nil {
		return fmt.Errorf("UpdateRating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateRating: no rows affected")
	}
	return nil
}

func scanPosts(rows *sql.Rows, op string) ([]*entity.Post, error) {
	posts := make([]*entity.Post, 0, 16)
	for rows.Next() {
		var post entity.Post
		var postType string
		if err := rows.Scan(&post.ID, &post.AuthorID, &postType, &post.Title, &post.Content,
			&post.Rating, &post.NotificationsSent, &post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		post.Type = entity.PostType(postType)
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}
