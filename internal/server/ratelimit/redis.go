package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/truthmate/truthmate/internal/logging"
)

const keyPrefix = "truthmate:ratelimit:"

// RedisLimiter shares counters between server instances through Redis. When
// Redis cannot be reached the request is allowed and a warning is logged.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	log    logging.Logger
}

func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration, log logging.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, log: log.With("module", "ratelimit")}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	d, err := l.allow(ctx, keyPrefix+key)
	if err != nil {
		l.log.Warn(ctx, "rate limiter unavailable, allowing request", "key", key, "error", err)
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit}, nil
	}
	return d, nil
}

func (l *RedisLimiter) allow(ctx context.Context, key string) (Decision, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire: %w", err)
		}
	}
	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("pttl: %w", err)
	}
	// A key left without expiry by a failed EXPIRE would never reset.
	if ttl < 0 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("expire: %w", err)
		}
		ttl = l.window
	}
	return decide(l.limit, count, ttl), nil
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
