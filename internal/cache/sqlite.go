package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteCache stores entries in the analytics_cache table so baselines
// survive restarts and are shared by every process using the same file.
type SQLiteCache struct {
	db  *sql.DB
	obs Observer
	now func() time.Time
}

// NewSQLite creates a cache on an already migrated database. obs may be nil.
func NewSQLite(db *sql.DB, obs Observer) *SQLiteCache {
	return &SQLiteCache{db: db, obs: obs, now: time.Now}
}

// WithClock replaces the time source, for tests
func (c *SQLiteCache) WithClock(now func() time.Time) *SQLiteCache {
	c.now = now
	return c
}

// Get implements Cache
func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx,
		"SELECT value FROM analytics_cache WHERE key = ? AND expires_at > ?",
		key, c.now().UnixMilli(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		observe(c.obs, false)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	observe(c.obs, true)
	return value, true, nil
}

// Set implements Cache
func (c *SQLiteCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	query := `
		INSERT INTO analytics_cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`
	if _, err := c.db.ExecContext(ctx, query, key, value, c.now().Add(ttl).UnixMilli()); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// multiGetChunk bounds the IN list of one query, below SQLite's variable limit
const multiGetChunk = 500

// MultiGet implements Cache
func (c *SQLiteCache) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	now := c.now().UnixMilli()
	for start := 0; start < len(keys); start += multiGetChunk {
		end := start + multiGetChunk
		if end > len(keys) {
			end = len(keys)
		}
		if err := c.multiGet(ctx, keys[start:end], now, out); err != nil {
			return nil, err
		}
	}

	for _, key := range keys {
		_, ok := out[key]
		observe(c.obs, ok)
	}
	return out, nil
}

func (c *SQLiteCache) multiGet(ctx context.Context, keys []string, now int64, out map[string]string) error {
	placeholders := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for i, key := range keys {
		placeholders[i] = "?"
		args = append(args, key)
	}
	args = append(args, now)

	query := fmt.Sprintf(
		"SELECT key, value FROM analytics_cache WHERE key IN (%s) AND expires_at > ?",
		strings.Join(placeholders, ","),
	)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to read cache keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan cache row: %w", err)
		}
		out[key] = value
	}
	return rows.Err()
}

// DeleteExpired removes expired rows and returns how many were removed
func (c *SQLiteCache) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM analytics_cache WHERE expires_at <= ?", c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}
