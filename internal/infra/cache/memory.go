package cache

import (
	"context"
	"sync"
	"time"
)

// Clock provides time operations for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// entry is a single cached value with its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory implementation of Client.
//
// Expired entries are dropped lazily on Get and swept in bulk when the
// store grows past its soft capacity, so memory stays bounded without a
// background goroutine.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	maxKeys int
	clock   Clock
}

// MemoryConfig holds configuration for Memory.
type MemoryConfig struct {
	// MaxKeys is the soft capacity that triggers a sweep of expired
	// entries on insert. Default: 10000.
	MaxKeys int

	// Clock provides time operations for testing. Default: SystemClock.
	Clock Clock
}

// NewMemory creates an in-memory cache with the given configuration.
func NewMemory(config MemoryConfig) *Memory {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	return &Memory{
		entries: make(map[string]entry),
		maxKeys: config.MaxKeys,
		clock:   config.Clock,
	}
}

// Get returns the value stored under key, or ErrMiss if the key is absent
// or its TTL has elapsed.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if !m.clock.Now().Before(e.expiresAt) {
		// Lazy expiry: drop the stale entry so it does not linger.
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value under key for the given TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxKeys {
		if _, exists := m.entries[key]; !exists {
			m.sweepExpired(now)
		}
	}
	m.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

// Delete removes key from the cache.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// sweepExpired removes every entry whose deadline has passed.
//
// Must be called while holding the write lock.
func (m *Memory) sweepExpired(now time.Time) {
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}
