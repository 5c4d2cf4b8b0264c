package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lenscart/backend/internal/domain"
)

const cleanupInterval = 10 * time.Minute

type entry struct {
	ident     *domain.Identification
	expiresAt time.Time
}

// IdentificationCache is a thread-safe in-memory TTL cache for vision
// identifications, keyed by image content hash.
type IdentificationCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	stop    chan struct{}
	once    sync.Once
}

// NewIdentificationCache creates the cache and starts its cleanup goroutine
func NewIdentificationCache() *IdentificationCache {
	c := &IdentificationCache{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go c.cleanupExpired()
	return c
}

// Get returns the cached identification for the key, if present and fresh
func (c *IdentificationCache) Get(ctx context.Context, key string) (*domain.Identification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.ident, true
}

// Set stores an identification under the key for the given TTL
func (c *IdentificationCache) Set(ctx context.Context, key string, ident *domain.Identification, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		ident:     ident,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes the key from the cache
func (c *IdentificationCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the current number of entries, expired or not
func (c *IdentificationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop terminates the cleanup goroutine
func (c *IdentificationCache) Stop() {
	c.once.Do(func() { close(c.stop) })
}

func (c *IdentificationCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
