// ===========================================
// Package database - Redis Connection
// ===========================================
// Redis backs the two hot-path concerns that must not touch
// PostgreSQL: the alias -> destination redirect cache and the
// rate-limit counters. Cache entries expire passively via TTL;
// there is no active sweep.
// ===========================================

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/shortlink/internal/config"
)

// RedisDB wraps the Redis client with application-specific methods.
type RedisDB struct {
	Client   *redis.Client
	CacheTTL time.Duration
}

// NewRedisDB creates a new Redis connection and validates it
// before returning.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opt.MinIdleConns = cfg.MinIdleConns
	}

	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisDB{
		Client:   client,
		CacheTTL: cfg.CacheTTL,
	}, nil
}

// Close gracefully shuts down the Redis connection.
func (r *RedisDB) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Health checks if Redis is responsive.
func (r *RedisDB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

// ===========================================
// Key Builders
// ===========================================

// CacheKey is the redirect-cache key for an alias.
// Pattern: "sl:{alias}".
func CacheKey(alias string) string {
	return fmt.Sprintf("sl:%s", alias)
}

// RateLimitKey is the per-client counter key for one rate-limit
// window. Pattern: "ratelimit:{identifier}:{window}".
func RateLimitKey(identifier string, window time.Time) string {
	return fmt.Sprintf("ratelimit:%s:%d", identifier, window.Unix()/60)
}

// ===========================================
// Cache Operations
// ===========================================

// Get retrieves a cached value. A missing key is a cache miss,
// reported as (nil, nil), not an error.
func (r *RedisDB) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return result, nil
}

// Set stores a value with an explicit TTL. A zero ttl falls back
// to the configured default.
func (r *RedisDB) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.CacheTTL
	}
	if err := r.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a key from the cache.
func (r *RedisDB) Delete(ctx context.Context, key string) error {
	if err := r.Client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// ===========================================
// Rate Limiting Operations
// ===========================================
// Sliding-window counter on INCR: the key embeds the current
// minute, INCR is atomic, and the expiry set on the first hit
// cleans the window up.

// IncrementRateLimit increments the counter for the current
// window, setting the window expiry on the first request.
func (r *RedisDB) IncrementRateLimit(ctx context.Context, key string, windowSize time.Duration) (int64, error) {
	count, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit incr failed: %w", err)
	}

	if count == 1 {
		// First request of the window: the key must not outlive it.
		_ = r.Client.Expire(ctx, key, windowSize).Err()
	}

	return count, nil
}
