package ratelimit

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLimiter(t *testing.T, rpm int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisLimiter(client, rpm, nil), mr
}

func TestRedisLimiter_CapEnforced(t *testing.T) {
	l, _ := newRedisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Allow(ctx, "client-a"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	err := l.Allow(ctx, "client-a")
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("request 4: err = %v, want LimitError", err)
	}
}

func TestRedisLimiter_KeysIndependent(t *testing.T) {
	l, _ := newRedisLimiter(t, 1)
	ctx := context.Background()

	l.Allow(ctx, "client-a")
	if err := l.Allow(ctx, "client-a"); err == nil {
		t.Fatal("client-a should be limited")
	}
	if err := l.Allow(ctx, "client-b"); err != nil {
		t.Errorf("client-b affected by client-a's quota: %v", err)
	}
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	l, mr := newRedisLimiter(t, 1)
	ctx := context.Background()

	l.Allow(ctx, "client-a")
	if err := l.Allow(ctx, "client-a"); err == nil {
		t.Fatal("second request in window should be limited")
	}

	mr.FastForward(window)

	if err := l.Allow(ctx, "client-a"); err != nil {
		t.Errorf("request after window expiry: %v", err)
	}
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	l, mr := newRedisLimiter(t, 1)
	mr.Close()

	// Redis down: requests pass rather than the surface going dark.
	if err := l.Allow(context.Background(), "client-a"); err != nil {
		t.Errorf("Allow with redis down: %v, want fail-open", err)
	}
}
