package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

func (repo *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	const query = `
INSERT INTO subscriptions (user_id, category_id, subscribed_at, last_weekly_sent)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		sub.UserID, sub.CategoryID, sub.SubscribedAt, sub.LastWeeklySent,
	).Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) GetByUserAndCategory(ctx context.Context, userID, categoryID int64) (*entity.Subscription, error) {
	const query = `
SELECT id, user_id, category_id, subscribed_at, last_weekly_sent
FROM subscriptions
WHERE user_id = $1
  AND category_id = $2
LIMIT 1`
	var sub entity.Subscription
	err := repo.db.QueryRowContext(ctx, query, userID, categoryID).
		Scan(&sub.ID, &sub.UserID, &sub.CategoryID, &sub.SubscribedAt, &sub.LastWeeklySent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByUserAndCategory: %w", err)
	}
	return &sub, nil
}

func (repo *SubscriptionRepo) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	const query = `
SELECT id, user_id, category_id, subscribed_at, last_weekly_sent
FROM subscriptions
ORDER BY id`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, 64)
	for rows.Next() {
		var sub entity.Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.CategoryID,
			&sub.SubscribedAt, &sub.LastWeeklySent); err != nil {
			return nil, fmt.Errorf("ListAll: Scan: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

func (repo *SubscriptionRepo) ListSubscribers(ctx context.Context, categoryID int64) ([]*entity.User, error) {
	const query = `
SELECT u.id, u.username, u.email
FROM users u
INNER JOIN subscriptions s ON s.user_id = u.id
WHERE s.category_id = $1
ORDER BY u.id`
	rows, err := repo.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("ListSubscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*entity.User, 0, 32)
	for rows.Next() {
		var user entity.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email); err != nil {
			return nil, fmt.Errorf("ListSubscribers: Scan: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (repo *SubscriptionRepo) UpdateCursor(ctx context.Context, subscriptionID int64, sentAt time.Time) error {
	const query = `UPDATE subscriptions SET last_weekly_sent = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, sentAt, subscriptionID)
	if err != nil {
		return fmt.Errorf("UpdateCursor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateCursor: no rows affected")
	}
	return nil
}

func (repo *SubscriptionRepo) Delete(ctx context.Context, subscriptionID int64) error {
	const query = `DELETE FROM subscriptions WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, subscriptionID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}
