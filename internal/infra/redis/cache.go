// Package redis provides the optional tagged response cache. The
// upstream clients never cache; routes that tolerate staleness consult
// this layer with their own revalidation window instead.
package redis

import (
	"time"

	radix "github.com/mediocregopher/radix/v3"
	"go.uber.org/zap"
)

const (
	valuePrefix = "cache:v:"
	tagPrefix   = "cache:tag:"
)

// Cache is a best-effort response cache over a Redis pool. A nil *Cache
// is valid and disables caching; every operation on it is a no-op.
// Failures are logged and treated as misses so a dead Redis never fails
// a request.
type Cache struct {
	pool radix.Client
}

// New connects the pool. Returns nil (cache disabled) when addr is empty
// or the connection cannot be established.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}
	pool, err := radix.NewPool("tcp", addr, 10)
	if err != nil {
		zap.L().Warn("redis unavailable, response cache disabled", zap.Error(err))
		return nil
	}
	return &Cache{pool: pool}
}

// Get returns the cached payload for key, or ok=false on miss/error.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	var raw []byte
	if err := c.pool.Do(radix.Cmd(&raw, "GET", valuePrefix+key)); err != nil {
		zap.L().Debug("cache get failed", zap.Error(err))
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// Set stores the payload under key for ttl and records the key under tag
// so the invalidation trigger can clear related entries together.
func (c *Cache) Set(tag, key string, value []byte, ttl time.Duration) {
	if c == nil {
		return
	}
	seconds := int(ttl.Seconds())
	if seconds <= 0 {
		return
	}
	if err := c.pool.Do(radix.FlatCmd(nil, "SETEX", valuePrefix+key, seconds, value)); err != nil {
		zap.L().Debug("cache set failed", zap.Error(err))
		return
	}
	_ = c.pool.Do(radix.Cmd(nil, "SADD", tagPrefix+tag, valuePrefix+key))
	_ = c.pool.Do(radix.FlatCmd(nil, "EXPIRE", tagPrefix+tag, seconds))
}

// InvalidateTag deletes every entry recorded under tag. Returns how many
// keys were dropped.
func (c *Cache) InvalidateTag(tag string) int {
	if c == nil {
		return 0
	}
	var keys []string
	if err := c.pool.Do(radix.Cmd(&keys, "SMEMBERS", tagPrefix+tag)); err != nil || len(keys) == 0 {
		_ = c.pool.Do(radix.Cmd(nil, "DEL", tagPrefix+tag))
		return 0
	}
	args := append(keys, tagPrefix+tag)
	var dropped int
	if err := c.pool.Do(radix.Cmd(&dropped, "DEL", args...)); err != nil {
		return 0
	}
	return dropped
}

// InvalidatePath deletes every cached entry whose key starts with path.
// Keys are request URIs, so this clears a route with all its query
// variants.
func (c *Cache) InvalidatePath(path string) int {
	if c == nil {
		return 0
	}
	scanner := radix.NewScanner(c.pool, radix.ScanOpts{
		Command: "SCAN",
		Pattern: valuePrefix + path + "*",
	})
	var keys []string
	var key string
	for scanner.Next(&key) {
		keys = append(keys, key)
	}
	if err := scanner.Close(); err != nil {
		zap.L().Debug("cache scan failed", zap.Error(err))
	}
	if len(keys) == 0 {
		return 0
	}
	var dropped int
	if err := c.pool.Do(radix.Cmd(&dropped, "DEL", keys...)); err != nil {
		return 0
	}
	return dropped
}
