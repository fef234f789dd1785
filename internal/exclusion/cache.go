// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package exclusion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"goa.design/clue/log"

	"github.com/pdiddy/game-scout/pkg/types"
)

const defaultCacheTTL = 10 * time.Minute

// redisClient is the subset of *redis.Client used by the cache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Cache serves exclusion lists from Redis, falling through to Next on a miss
// and invalidating a provider's entry whenever an outcome is recorded.
type Cache struct {
	Next   Source
	Client redisClient
	TTL    time.Duration
	Prefix string
}

// NewCache wraps next with a Redis-backed cache.
func NewCache(next Source, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Next: next, Client: client, TTL: ttl}
}

func (c *Cache) key(provider types.Provider) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "game-scout:exclusions:"
	}
	return prefix + string(provider)
}

// ExcludedDomains returns the cached list for provider. Redis failures are
// logged and treated as a miss.
func (c *Cache) ExcludedDomains(ctx context.Context, provider types.Provider) ([]string, error) {
	key := c.key(provider)

	raw, err := c.Client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var domains []string
		if jerr := json.Unmarshal([]byte(raw), &domains); jerr == nil {
			return domains, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Warn(ctx, log.KV{K: "msg", V: "exclusion cache read failed"}, log.KV{K: "key", V: key},
			log.KV{K: "err", V: err.Error()})
	}

	domains, err := c.Next.ExcludedDomains(ctx, provider)
	if err != nil {
		return nil, err
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	data, _ := json.Marshal(domains)
	if err := c.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Warn(ctx, log.KV{K: "msg", V: "exclusion cache write failed"}, log.KV{K: "key", V: key},
			log.KV{K: "err", V: err.Error()})
	}
	return domains, nil
}

// RecordFailure forwards to Next and invalidates the provider's entry.
func (c *Cache) RecordFailure(ctx context.Context, provider types.Provider, domain string) error {
	rec, ok := c.Next.(Recorder)
	if !ok {
		return nil
	}
	if err := rec.RecordFailure(ctx, provider, domain); err != nil {
		return err
	}
	return c.Invalidate(ctx, provider)
}

// RecordSuccess forwards to Next and invalidates the provider's entry.
func (c *Cache) RecordSuccess(ctx context.Context, provider types.Provider, domain string) error {
	rec, ok := c.Next.(Recorder)
	if !ok {
		return nil
	}
	if err := rec.RecordSuccess(ctx, provider, domain); err != nil {
		return err
	}
	return c.Invalidate(ctx, provider)
}

// Invalidate drops the cached list of provider.
func (c *Cache) Invalidate(ctx context.Context, provider types.Provider) error {
	if err := c.Client.Del(ctx, c.key(provider)).Err(); err != nil {
		return fmt.Errorf("invalidating exclusion cache: %w", err)
	}
	return nil
}
