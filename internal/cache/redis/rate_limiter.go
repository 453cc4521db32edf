package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tallmansamadam/ladybug-trading/internal/domain"
)

// RateLimiter implements domain.RateLimiter with a fixed window counter per
// key. The counter expires with the window, so idle keys clean themselves up.
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{rdb: c.Underlying()}
}

func rateLimitKey(key string) string {
	return "ratelimit:" + key
}

// Allow counts the request and reports whether it fits inside the window
// limit. The INCR and EXPIRE run in one pipeline so a crashed client cannot
// leave an immortal counter behind.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	pipe := rl.rdb.TxPipeline()
	count := pipe.Incr(ctx, rateLimitKey(key))
	pipe.Expire(ctx, rateLimitKey(key), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}
	return count.Val() <= int64(limit), nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
