package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestBus() *Bus {
	return New(nil, 64, 2)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPublish_NoSubscribers(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	// Must not panic or block.
	b.Publish("nobody.listens", map[string]any{"k": "v"})
}

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var mu sync.Mutex
	var got []string

	b.Subscribe("demo.created", func(_ context.Context, payload map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "first:"+payload["id"].(string))
		return nil
	})
	b.Subscribe("demo.created", func(_ context.Context, payload map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "second:"+payload["id"].(string))
		return nil
	})

	b.Publish("demo.created", map[string]any{"id": "x"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, "both subscribers should receive the event")
}

func TestPublish_FailingHandlerIsolated(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var mu sync.Mutex
	secondRan := false

	b.Subscribe("demo.created", func(context.Context, map[string]any) error {
		return errors.New("always fails")
	})
	b.Subscribe("demo.created", func(context.Context, map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		secondRan = true
		return nil
	})

	b.Publish("demo.created", map[string]any{"id": "x"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return secondRan
	}, "second subscriber should run despite the first failing")
}

func TestPublish_PanickingHandlerIsolated(t *testing.T) {
	b := newTestBus()
	defer b.Close()

	var mu sync.Mutex
	delivered := 0

	b.Subscribe("demo.created", func(context.Context, map[string]any) error {
		panic("handler bug")
	})
	b.Subscribe("demo.created", func(context.Context, map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	})

	// Two publishes: the panicking handler must not take a worker down.
	b.Publish("demo.created", map[string]any{"id": "1"})
	b.Publish("demo.created", map[string]any{"id": "2"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == 2
	}, "healthy subscriber should receive both events")
}

func TestPublish_DoesNotBlockPublisher(t *testing.T) {
	// Tiny queue, no consumer progress: publishes must drop, not stall.
	b := New(nil, 1, 1)
	defer b.Close()

	block := make(chan struct{})
	b.Subscribe("slow", func(context.Context, map[string]any) error {
		<-block
		return nil
	})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("slow", map[string]any{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full queue")
	}
	close(block)

	if b.Dropped() == 0 {
		t.Error("expected dropped deliveries with a saturated queue")
	}
}

func TestClose_DrainsQueue(t *testing.T) {
	b := New(nil, 64, 1)

	var mu sync.Mutex
	delivered := 0
	b.Subscribe("topic", func(context.Context, map[string]any) error {
		mu.Lock()
		defer mu.Unlock()
		delivered++
		return nil
	})

	for i := 0; i < 10; i++ {
		b.Publish("topic", map[string]any{})
	}

	b.Close()

	mu.Lock()
	defer mu.Unlock()
	if delivered != 10 {
		t.Errorf("delivered = %d, want 10 after Close drains", delivered)
	}
}

func TestPublish_AfterCloseIsNoOp(t *testing.T) {
	b := newTestBus()

	ran := false
	b.Subscribe("topic", func(context.Context, map[string]any) error {
		ran = true
		return nil
	})

	b.Close()
	b.Publish("topic", map[string]any{})

	if ran {
		t.Error("handler ran for a publish after Close")
	}
}
