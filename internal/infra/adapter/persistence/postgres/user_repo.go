package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"newsportal/internal/domain/entity"
	"newsportal/internal/repository"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	const query = `
SELECT id, username, email
FROM users
WHERE id = $1
LIMIT 1`
	var user entity.User
	err := repo.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &user, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	const query = `
INSERT INTO users (username, email)
VALUES ($1, $2)
RETURNING id`
	if err := repo.db.QueryRowContext(ctx, query, user.Username, user.Email).Scan(&user.ID); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *UserRepo) AddRole(ctx context.Context, userID int64, role string) error {
	const query = `
INSERT INTO user_roles (user_id, role)
VALUES ($1, $2)
ON CONFLICT (user_id, role) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("AddRole: %w", err)
	}
	return nil
}

func (repo *UserRepo) HasRole(ctx context.Context, userID int64, role string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	var has bool
	if err := repo.db.QueryRowContext(ctx, query, userID, role).Scan(&has); err != nil {
		return false, fmt.Errorf("HasRole: %w", err)
	}
	return has, nil
}
