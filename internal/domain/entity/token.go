package entity

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TokenTTL is how long an activation token stays valid after creation.
const TokenTTL = 7 * 24 * time.Hour

const tokenLength = 64 // hex characters

// ActivationToken is a single-use account activation token, one per user.
// Activation is terminal: once Activated flips to true it never flips back,
// and re-activation is a no-op.
type ActivationToken struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	Activated bool
}

// NewActivationToken creates a pending token for the user with a random
// opaque token string.
func NewActivationToken(userID int64, now time.Time) (*ActivationToken, error) {
	buf := make([]byte, tokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return &ActivationToken{
		UserID:    userID,
		Token:     hex.EncodeToString(buf),
		CreatedAt: now,
		Activated: false,
	}, nil
}

// IsExpired reports whether the token is strictly older than TokenTTL.
func (t *ActivationToken) IsExpired(now time.Time) bool {
	return now.After(t.CreatedAt.Add(TokenTTL))
}

// IsValid reports whether the token can still be used for activation:
// not yet activated and not expired.
func (t *ActivationToken) IsValid(now time.Time) bool {
	return !t.Activated && !t.IsExpired(now)
}
