package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

type AuthorRepo struct {
	db *sql.DB
}

func NewAuthorRepo(db *sql.DB) repository.AuthorRepository {
	return &AuthorRepo{db: db}
}

func (repo *AuthorRepo) Get(ctx context.Context, id int64) (*entity.Author, error) {
	const query = `
SELECT id, user_id, rating
FROM authors
WHERE id = $1`
	var author entity.Author
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&author.ID, &author.UserID, &author.Rating)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &author, nil
}

func (repo *AuthorRepo) GetByUser(ctx context.Context, userID int64) (*entity.Author, error) {
	const query = `
SELECT id, user_id, rating
FROM authors
WHERE user_id = $1
LIMIT 1`
	var author entity.Author
	err := repo.db.QueryRowContext(ctx, query, userID).
		Scan(&author.ID, &author.UserID, &author.Rating)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUser: %w", err)
	}
	return &author, nil
}

func (repo *AuthorRepo) Create(ctx context.Context, author *entity.Author) error {
	const query = `
INSERT INTO authors (user_id, rating)
VALUES ($1, $2)
RETURNING id`
	if err := repo.db.QueryRowContext(ctx, query, author.UserID, author.Rating).Scan(&author.ID); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// RecalculateRating recomputes the author rating in a single statement:
// triple the sum of the author's post ratings, plus the sum of the author's
// own comment ratings, plus the sum of ratings on comments under the
// author's posts.
func (repo *AuthorRepo) RecalculateRating(ctx context.Context, authorID int64) (int, error) {
	const query = `
UPDATE authors a SET rating =
    3 * COALESCE((SELECT SUM(p.rating) FROM posts p WHERE p.author_id = a.id), 0)
  +     COALESCE((SELECT SUM(c.rating) FROM comments c WHERE c.user_id = a.user_id), 0)
  +     COALESCE((SELECT SUM(c.rating) FROM comments c
                  INNER JOIN posts p ON p.id = c.post_id
                  WHERE p.author_id = a.id), 0)
WHERE a.id = $1
RETURNING a.rating`
	var rating int
	if err := repo.db.QueryRowContext(ctx, query, authorID).Scan(&rating); err != nil {
		return 0, fmt.Errorf("RecalculateRating: %w", err)
	}
	return rating, nil
}
