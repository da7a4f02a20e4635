// Package ratelimit throttles code requests with fixed-window counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timereport/internal/common"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether another request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

const keyPrefix = "timereport:otp:"

// RedisLimiter counts hits per key with INCR and sets the window TTL on the
// first hit.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

// Allow returns common.ErrRateLimited once key has been seen more than limit
// times within the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	k := keyPrefix + key

	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("rate limiter unavailable: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return fmt.Errorf("rate limiter unavailable: %w", err)
		}
	}

	if count > l.limit {
		return common.ErrRateLimited
	}
	return nil
}

// Nop allows everything. Used when no Redis address is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) error { return nil }
