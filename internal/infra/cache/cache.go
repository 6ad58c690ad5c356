// Package cache provides the page-fragment cache used by the portal and the
// invalidation hooks that keep it coherent with content changes.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long cached fragments live when no explicit TTL is given.
const DefaultTTL = 300 * time.Second

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Client is the minimal cache surface the portal relies on. Implementations
// must be safe for concurrent use.
type Client interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for the given TTL. A non-positive TTL
	// falls back to DefaultTTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
