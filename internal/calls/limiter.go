package calls

import (
	"context"
	"time"

	"crm-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisCallLimiter enforces one active softphone call per user with a
// TTL-backed counter, so a crashed process cannot leak a slot forever.
type RedisCallLimiter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCallLimiter(rdb *redis.Client, ttl time.Duration) *RedisCallLimiter {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &RedisCallLimiter{rdb: rdb, ttl: ttl}
}

func slotKey(userID string) string { return "calls:active:" + userID }

func (l *RedisCallLimiter) Acquire(ctx context.Context, userID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, slotKey(userID), 1, l.ttl)
}

func (l *RedisCallLimiter) Release(ctx context.Context, userID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, slotKey(userID))
}
