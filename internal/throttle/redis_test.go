package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T, policy Policy) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter := NewRedisLimiter(redis.NewClient(&redis.Options{Addr: mr.Addr()}), policy)
	t.Cleanup(func() { _ = limiter.Close() })
	return limiter, mr
}

func TestRedisLimiterLocksAfterMaxAttempts(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, Policy{MaxAttempts: 3, Window: time.Minute, Lockout: 10 * time.Minute})
	ctx := context.Background()

	for i, want := range []int{2, 1, 0} {
		got, err := limiter.Fail(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Fail returned error: %v", err)
		}
		if got != want {
			t.Fatalf("attempt %d: remaining = %d, want %d", i+1, got, want)
		}
	}

	wait, err := limiter.Locked(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Locked returned error: %v", err)
	}
	if wait != 10*time.Minute {
		t.Fatalf("unexpected lock duration: %s", wait)
	}
	if mr.Exists(failKeyPrefix + "10.0.0.1") {
		t.Fatal("failure counter should be cleared once locked")
	}

	if wait, _ := limiter.Locked(ctx, "10.0.0.2"); wait != 0 {
		t.Fatalf("other client must not be locked, got %s", wait)
	}

	mr.FastForward(11 * time.Minute)
	if wait, _ := limiter.Locked(ctx, "10.0.0.1"); wait != 0 {
		t.Fatalf("lock should have expired, got %s", wait)
	}
}

func TestRedisLimiterWindowResets(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t, Policy{MaxAttempts: 2, Window: time.Minute, Lockout: time.Minute})
	ctx := context.Background()

	if got, _ := limiter.Fail(ctx, "ip"); got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}
	if ttl := mr.TTL(failKeyPrefix + "ip"); ttl != time.Minute {
		t.Fatalf("counter ttl = %s, want %s", ttl, time.Minute)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := limiter.Fail(ctx, "ip"); got != 1 {
		t.Fatalf("window should restart, remaining = %d", got)
	}
}

func TestRedisLimiterReset(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t, Policy{MaxAttempts: 1, Window: time.Minute, Lockout: time.Minute})
	ctx := context.Background()

	if _, err := limiter.Fail(ctx, "ip"); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if wait, _ := limiter.Locked(ctx, "ip"); wait <= 0 {
		t.Fatal("expected lock")
	}
	if err := limiter.Reset(ctx, "ip"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if wait, _ := limiter.Locked(ctx, "ip"); wait != 0 {
		t.Fatalf("expected no lock after reset, got %s", wait)
	}
}

func TestNewRedisLimiterFromURLRejectsBadURL(t *testing.T) {
	if _, err := NewRedisLimiterFromURL("not-a-url://", Policy{}); err == nil {
		t.Fatal("expected parse error")
	}
}
