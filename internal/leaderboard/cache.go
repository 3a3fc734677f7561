package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 30 * time.Second

// RedisCache stores serialized listings in Redis with a short TTL.
// Cache failures are logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache connects to Redis and verifies connectivity
func NewRedisCache(address, password string, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, logger: logger}, nil
}

func cacheKey(order Order, n int) string {
	return fmt.Sprintf("leaderboard:%s:%d", order, n)
}

// Get returns a cached listing if present
func (c *RedisCache) Get(ctx context.Context, order Order, n int) ([]Entry, bool) {
	data, err := c.client.Get(ctx, cacheKey(order, n)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache get failed", "error", err)
		}
		return nil, false
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt", "error", err)
		return nil, false
	}
	return entries, true
}

// Set caches a listing for a short period
func (c *RedisCache) Set(ctx context.Context, order Order, n int, entries []Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(order, n), data, cacheTTL).Err(); err != nil {
		c.logger.Warn("leaderboard cache set failed", "error", err)
	}
}

// Invalidate drops all cached listings
func (c *RedisCache) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "leaderboard:*", 100).Result()
		if err != nil {
			c.logger.Warn("leaderboard cache scan failed", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("leaderboard cache delete failed", "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
