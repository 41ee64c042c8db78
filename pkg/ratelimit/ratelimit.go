// Package ratelimit caps request rate per client key using a fixed
// one-minute window. Two backends are provided: an in-process counter for
// single-instance deployments and a Redis counter for shared quotas.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// window is the fixed counting window.
const window = time.Minute

// LimitError reports an exceeded quota with a retry hint.
type LimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

// Limiter checks whether a request from the given client key is within
// quota. Implementations must be safe for concurrent use: the counter
// behind one key is shared by every in-flight request from that client.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per client key in memory. Stale buckets are swept once per window
// so keys that go quiet do not accumulate.
type InProcessLimiter struct {
	rpm       int
	mu        sync.Mutex
	counters  map[string]*counter
	lastSweep time.Time
	now       func() time.Time
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a limiter capping at rpm requests per minute
// per key. rpm <= 0 disables limiting.
func NewInProcessLimiter(rpm int) *InProcessLimiter {
	return &InProcessLimiter{
		rpm:      rpm,
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Allow counts the request against key's window and returns a LimitError
// when the cap is exceeded. The mutation is serialized under one lock, so
// concurrent requests from the same client never undercount.
func (l *InProcessLimiter) Allow(_ context.Context, key string) error {
	if l.rpm <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= window {
		// New window.
		l.counters[key] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > l.rpm {
		return &LimitError{RetryAfter: window - now.Sub(c.windowAt)}
	}

	return nil
}

// sweep drops buckets whose window has elapsed. Runs at most once per
// window, under the caller's lock.
func (l *InProcessLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < window {
		return
	}
	l.lastSweep = now

	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= window {
			delete(l.counters, key)
		}
	}
}
