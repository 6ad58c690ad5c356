package repository

import (
	"context"

	"newsportal/internal/domain/entity"
)

// UserRepository is the content store interface for user accounts and roles.
type UserRepository interface {
	// Get retrieves a user by ID. Returns (nil, nil) when not found.
	Get(ctx context.Context, id int64) (*entity.User, error)
	// Create persists a new user and fills in its generated ID.
	Create(ctx context.Context, user *entity.User) error
	// AddRole grants a role to a user. Granting an already held role is a
	// no-op.
	AddRole(ctx context.Context, userID int64, role string) error
	// HasRole reports whether the user holds the role.
	HasRole(ctx context.Context, userID int64, role string) (bool, error)
}
