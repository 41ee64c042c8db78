package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestInProcessLimiter_CapEnforced(t *testing.T) {
	l := NewInProcessLimiter(5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Allow(ctx, "client-a"); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	err := l.Allow(ctx, "client-a")
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("request 6: err = %v, want LimitError", err)
	}
	if le.RetryAfter <= 0 || le.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %s, want within the window", le.RetryAfter)
	}
}

func TestInProcessLimiter_KeysIndependent(t *testing.T) {
	l := NewInProcessLimiter(2)
	ctx := context.Background()

	l.Allow(ctx, "client-a")
	l.Allow(ctx, "client-a")
	if err := l.Allow(ctx, "client-a"); err == nil {
		t.Fatal("client-a should be limited")
	}

	if err := l.Allow(ctx, "client-b"); err != nil {
		t.Errorf("client-b affected by client-a's quota: %v", err)
	}
}

func TestInProcessLimiter_WindowRollover(t *testing.T) {
	l := NewInProcessLimiter(1)
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	l.Allow(ctx, "client-a")
	if err := l.Allow(ctx, "client-a"); err == nil {
		t.Fatal("second request in window should be limited")
	}

	now = now.Add(time.Minute + time.Second)
	if err := l.Allow(ctx, "client-a"); err != nil {
		t.Errorf("request after rollover: %v", err)
	}
}

func TestInProcessLimiter_EvictsStaleKeys(t *testing.T) {
	l := NewInProcessLimiter(10)
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		l.Allow(ctx, "client-"+string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	if len(l.counters) == 0 {
		t.Fatal("no buckets tracked")
	}

	// After a full window of silence, a single request from a fresh key
	// sweeps every stale bucket.
	now = now.Add(window + time.Second)
	l.Allow(ctx, "client-fresh")

	l.mu.Lock()
	tracked := len(l.counters)
	l.mu.Unlock()
	if tracked != 1 {
		t.Errorf("buckets after sweep = %d, want only the active key", tracked)
	}
}

func TestInProcessLimiter_Disabled(t *testing.T) {
	l := NewInProcessLimiter(0)
	for i := 0; i < 1000; i++ {
		if err := l.Allow(context.Background(), "client-a"); err != nil {
			t.Fatalf("disabled limiter rejected request: %v", err)
		}
	}
}

func TestInProcessLimiter_ConcurrentCounting(t *testing.T) {
	const rpm = 100
	const requests = 200

	l := NewInProcessLimiter(rpm)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow(ctx, "client-a"); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != rpm {
		t.Errorf("allowed = %d, want exactly %d under concurrency", allowed, rpm)
	}
}
