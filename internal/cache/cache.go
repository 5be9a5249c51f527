// Package cache holds the Redis-backed read cache for slot listings.
// Availability numbers served from it are advisory; booking decisions are
// always made against the database inside a transaction.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lesson-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New connects to Redis. When the cache is disabled in config it returns
// nil, and every method on a nil *Cache is a no-op miss.
func New(cfg *utils.Config, log *zap.Logger) (*Cache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    cfg.Booking.SlotCacheTTL,
		log:    log.With(zap.String("component", "cache")),
	}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Get unmarshals the cached value into dest and reports whether it was
// present. Cache errors are logged and reported as misses.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.Warn("Cache read failed", zap.Error(err), zap.String("key", key))
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("Cache entry corrupt, dropping", zap.Error(err), zap.String("key", key))
		c.client.Del(ctx, key)
		return false
	}

	return true
}

func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("Cache marshal failed", zap.Error(err), zap.String("key", key))
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("Cache write failed", zap.Error(err), zap.String("key", key))
	}
}

// Invalidate removes every key under the given prefixes. Called after any
// slot mutation so listings never serve stale availability for long.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	if c == nil {
		return
	}

	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.log.Warn("Cache invalidation failed", zap.Error(err), zap.String("key", iter.Val()))
			}
		}
		if err := iter.Err(); err != nil {
			c.log.Warn("Cache scan failed", zap.Error(err), zap.String("prefix", prefix))
		}
	}
}

const (
	PrefixSchedules = "schedules:"
	PrefixPractices = "practices:"
)

// ListKey builds a deterministic key from the listing filters.
func ListKey(prefix string, parts ...string) string {
	key := prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
