package ratelimit

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window rate limiter backed by Redis, for
// deployments where several instances must share one quota. The counter is
// an INCR with a window-length expiry; Redis serializes the increment, so
// concurrent requests never undercount.
type RedisLimiter struct {
	client *redis.Client
	rpm    int
	logger *slog.Logger
}

// NewRedisLimiter creates a limiter counting in Redis.
func NewRedisLimiter(client *redis.Client, rpm int, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{client: client, rpm: rpm, logger: logger}
}

// Allow counts the request against key's window. Fails open: if Redis is
// unreachable the request is allowed rather than the whole surface going
// dark behind a limiter outage.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	if l.rpm <= 0 {
		return nil
	}

	redisKey := "rl:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limiter redis unavailable", "error", err)
		return nil
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, window).Err(); err != nil {
			l.logger.Warn("rate limiter redis unavailable", "error", err)
			return nil
		}
	}

	if count > int64(l.rpm) {
		retry := window
		if ttl, err := l.client.TTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
			retry = ttl
		}
		return &LimitError{RetryAfter: retry}
	}

	return nil
}

// Compile-time interface checks.
var (
	_ Limiter = (*InProcessLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
