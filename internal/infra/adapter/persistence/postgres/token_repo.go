package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

type TokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) repository.TokenRepository {
	return &TokenRepo{db: db}
}

func (repo *TokenRepo) Create(ctx context.Context, token *entity.ActivationToken) error {
	const query = `
INSERT INTO activation_tokens (user_id, token, created_at, activated)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		token.UserID, token.Token, token.CreatedAt, token.Activated,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *TokenRepo) GetByUser(ctx context.Context, userID int64) (*entity.ActivationToken, error) {
	const query = `
SELECT id, user_id, token, created_at, activated
FROM activation_tokens
WHERE user_id = $1
LIMIT 1`
	return repo.getOne(ctx, query, userID)
}

func (repo *TokenRepo) GetByToken(ctx context.Context, token string) (*entity.ActivationToken, error) {
	const query = `
SELECT id, user_id, token, created_at, activated
FROM activation_tokens
WHERE token = $1
LIMIT 1`
	return repo.getOne(ctx, query, token)
}

func (repo *TokenRepo) getOne(ctx context.Context, query string, arg any) (*entity.ActivationToken, error) {
	var token entity.ActivationToken
	err := repo.db.QueryRowContext(ctx, query, arg).
		Scan(&token.ID, &token.UserID, &token.Token, &token.CreatedAt, &token.Activated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &token, nil
}

func (repo *TokenRepo) MarkActivated(ctx context.Context, tokenID int64) error {
	const query = `UPDATE activation_tokens SET activated = TRUE WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("MarkActivated: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("MarkActivated: no rows affected")
	}
	return nil
}

func (repo *TokenRepo) Delete(ctx context.Context, tokenID int64) error {
	const query = `DELETE FROM activation_tokens WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *TokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
DELETE FROM activation_tokens
WHERE activated = FALSE
  AND created_at < $1`
	res, err := repo.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredBefore: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredBefore: RowsAffected: %w", err)
	}
	return n, nil
}
