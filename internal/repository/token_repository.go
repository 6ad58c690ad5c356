package repository

import (
	"context"
	"time"

	"newsportal/internal/domain/entity"
)

// TokenRepository is the content store interface for activation tokens.
type TokenRepository interface {
	// Create persists a new token and fills in its generated ID.
	Create(ctx context.Context, token *entity.ActivationToken) error
	// GetByUser retrieves the user's token. Returns (nil, nil) when absent.
	GetByUser(ctx context.Context, userID int64) (*entity.ActivationToken, error)
	// GetByToken retrieves a token by its opaque string.
	// Returns (nil, nil) when absent.
	GetByToken(ctx context.Context, token string) (*entity.ActivationToken, error)
	// MarkActivated flips the token's activated flag to true.
	MarkActivated(ctx context.Context, tokenID int64) error
	// Delete removes a token.
	Delete(ctx context.Context, tokenID int64) error
	// DeleteExpiredBefore removes non-activated tokens created before the
	// cutoff and returns how many were deleted.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
