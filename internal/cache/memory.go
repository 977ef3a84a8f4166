package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val string
	exp time.Time
}

// MemoryCache is an in-process Cache
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	obs Observer
	now func() time.Time
}

// NewMemory creates an empty in-process cache. obs may be nil.
func NewMemory(obs Observer) *MemoryCache {
	return &MemoryCache{m: make(map[string]entry), obs: obs, now: time.Now}
}

// WithClock replaces the time source, for tests
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) lookup(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.exp) {
		return "", false
	}
	return e.val, true
}

// Get implements Cache
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.lookup(key)
	observe(c.obs, ok)
	return v, ok, nil
}

// Set implements Cache
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.m[key] = entry{val: value, exp: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// MultiGet implements Cache
func (c *MemoryCache) MultiGet(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, ok := c.lookup(key)
		observe(c.obs, ok)
		if ok {
			out[key] = v
		}
	}
	return out, nil
}

// DeleteExpired drops expired entries and returns how many were removed
func (c *MemoryCache) DeleteExpired(_ context.Context) (int64, error) {
	now := c.now()
	var n int64
	c.mu.Lock()
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			n++
		}
	}
	c.mu.Unlock()
	return n, nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
