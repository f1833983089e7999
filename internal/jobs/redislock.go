package jobs

import (
	"context"
	"time"

	"github.com/graphcrm/graphcrm/internal/cache"
)

// RedisLocker adapts the Redis job lock to Locker.
type RedisLocker struct {
	Cache *cache.Cache
}

// TryLock implements Locker.
func (l RedisLocker) TryLock(ctx context.Context, job string, ttl time.Duration) (Lock, bool, error) {
	lock, err := l.Cache.AcquireJobLock(ctx, job, ttl)
	if err != nil {
		return nil, false, err
	}
	if lock == nil {
		return nil, false, nil
	}
	return lock, true, nil
}
