// Package cache provides the key/value store that memoizes baselines and
// occupancy results.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with per-entry expiry.
// Concurrent writers to the same key are allowed; the last write wins.
type Cache interface {
	// Get returns the value and true on a hit. An expired entry is a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// MultiGet returns only the keys that hit.
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
}

// Observer receives hit/miss notifications
type Observer interface {
	CacheHit()
	CacheMiss()
}

func observe(obs Observer, hit bool) {
	if obs == nil {
		return
	}
	if hit {
		obs.CacheHit()
	} else {
		obs.CacheMiss()
	}
}
