package cache

import (
	"sync"
	"time"
)

// TTL is a single-value cache with an injected time-to-live and explicit
// invalidation. It replaces module-level cached lookups (admin recipient
// lists and the like) with a dependency that can be passed around and reset.
type TTL[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	value     T
	loadedAt  time.Time
	populated bool
	now       func() time.Time
}

// NewTTL creates a cache that considers its value stale after ttl.
func NewTTL[T any](ttl time.Duration) *TTL[T] {
	return &TTL[T]{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached value, calling load to refresh it when empty or
// stale. A failed load leaves any previous value untouched and returns the
// stale value alongside the error, so callers can degrade gracefully.
func (c *TTL[T]) Get(load func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.populated && c.now().Sub(c.loadedAt) < c.ttl {
		return c.value, nil
	}

	value, err := load()
	if err != nil {
		return c.value, err
	}

	c.value = value
	c.loadedAt = c.now()
	c.populated = true
	return c.value, nil
}

// Invalidate drops the cached value so the next Get reloads.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.populated = false
}
