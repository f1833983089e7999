package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jobLockPrefix is the Redis key prefix for job locks.
const jobLockPrefix = "lock:job:"

// ErrLockNotHeld is returned when releasing a lock owned by someone else.
var ErrLockNotHeld = errors.New("lock not held")

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// JobLock is an acquired lock on a named job.
type JobLock struct {
	cache *Cache
	key   string
	token string
}

// AcquireJobLock takes the lock for job if nobody holds it. It returns
// (nil, nil) when another process already holds the lock. The TTL bounds
// how long a crashed holder can block the job.
func (c *Cache) AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (*JobLock, error) {
	key := jobLockPrefix + job
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", job, err)
	}
	if !ok {
		return nil, nil
	}

	return &JobLock{cache: c, key: key, token: token}, nil
}

// Release frees the lock.
func (l *JobLock) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, l.cache.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
