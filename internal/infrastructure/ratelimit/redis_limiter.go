package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradehub/pkg/logger"
)

// RedisLimiter shares limits across API replicas with a fixed window counter per
// user and action. Redis failures fail open.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit"}
}

func (l *RedisLimiter) Allow(ctx context.Context, userID, action string) (bool, time.Duration) {
	policy := PolicyFor(action)
	window := policy.Window()
	if window <= 0 {
		return true, 0
	}

	slot := time.Now().UnixNano() / int64(window)
	key := fmt.Sprintf("%s:%s:%s:%d", l.prefix, action, userID, slot)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("RateLimit Warning: redis unavailable for %s: %v", key, err)
		return true, 0
	}

	if incr.Val() <= int64(policy.MaxTokens) {
		return true, 0
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return false, ttl
}
