//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/graphcrm/graphcrm/internal/testutil"
)

func newIntegrationCache(t *testing.T) *Cache {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "REDIS_URL")
	ctx := context.Background()

	c, err := New(ctx, redisURL, Options{})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return c
}

func TestJobLock_Exclusive(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	first, err := c.AcquireJobLock(ctx, "cleanup", time.Minute)
	if err != nil || first == nil {
		t.Fatalf("first acquire = %v, %v", first, err)
	}

	second, err := c.AcquireJobLock(ctx, "cleanup", time.Minute)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if second != nil {
		t.Fatal("second acquire should not get the lock")
	}

	other, err := c.AcquireJobLock(ctx, "report", time.Minute)
	if err != nil || other == nil {
		t.Fatalf("independent job should lock: %v, %v", other, err)
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := first.Release(ctx); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("double release error = %v, want ErrLockNotHeld", err)
	}

	again, err := c.AcquireJobLock(ctx, "cleanup", time.Minute)
	if err != nil || again == nil {
		t.Fatalf("acquire after release = %v, %v", again, err)
	}
}

func TestJobLock_ReleaseAfterTakeover(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	stale, err := c.AcquireJobLock(ctx, "heartbeat", 50*time.Millisecond)
	if err != nil || stale == nil {
		t.Fatalf("acquire = %v, %v", stale, err)
	}
	time.Sleep(100 * time.Millisecond)

	fresh, err := c.AcquireJobLock(ctx, "heartbeat", time.Minute)
	if err != nil || fresh == nil {
		t.Fatalf("acquire after expiry = %v, %v", fresh, err)
	}

	if err := stale.Release(ctx); !errors.Is(err, ErrLockNotHeld) {
		t.Errorf("stale release error = %v, want ErrLockNotHeld", err)
	}
	if err := fresh.Release(ctx); err != nil {
		t.Errorf("fresh release failed: %v", err)
	}
}

func TestCheckIPRateLimit_Burst(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	fixed := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return fixed }

	for i := 0; i < 3; i++ {
		res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, 3)
		if err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be within burst", i)
		}
	}

	res, err := c.CheckIPRateLimit(ctx, "203.0.113.7", 1, 3)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if res.Allowed {
		t.Error("request beyond burst should be limited")
	}
	if res.RetryAfter != time.Second {
		t.Errorf("RetryAfter = %v, want 1s", res.RetryAfter)
	}

	res, _ = c.CheckIPRateLimit(ctx, "198.51.100.1", 1, 3)
	if !res.Allowed {
		t.Error("other IPs should have their own bucket")
	}
}

func TestCheckIPRateLimit_SubSecondRefill(t *testing.T) {
	c := newIntegrationCache(t)
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	// 4 rps, burst 1: one token every 250ms.
	if res, _ := c.CheckIPRateLimit(ctx, "203.0.113.9", 4, 1); !res.Allowed {
		t.Fatal("first request should pass")
	}

	res, _ := c.CheckIPRateLimit(ctx, "203.0.113.9", 4, 1)
	if res.Allowed {
		t.Fatal("second request should be limited")
	}
	if res.RetryAfter != 250*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 250ms", res.RetryAfter)
	}

	now = now.Add(250 * time.Millisecond)
	res, _ = c.CheckIPRateLimit(ctx, "203.0.113.9", 4, 1)
	if !res.Allowed {
		t.Error("request after one refill interval should pass")
	}
	if !res.ResetAt.Equal(now.Add(250 * time.Millisecond)) {
		t.Errorf("ResetAt = %v, want %v", res.ResetAt, now.Add(250*time.Millisecond))
	}
}
