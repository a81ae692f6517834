package redis

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
)

const lockSentinel = "locked"

// LockManager hands out non-blocking, TTL bounded locks. Release does not check
// ownership: a lock that expired and was taken again is released as well.
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// Acquire reports false when key is already held.
func (l *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, lockSentinel, ttl).Result()
}

func (l *LockManager) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
