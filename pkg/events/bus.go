// Package events provides an in-process publish/subscribe bus for
// fire-and-forget side effects triggered by route handlers.
//
// Delivery is best-effort, at-most-once per handler per publish. Handlers
// run on a worker pool, never on the publisher's goroutine, and a handler
// failure is isolated: it is logged and counted but never reaches the
// publisher or sibling handlers.
package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fusionfutures/api/pkg/observability"
)

// Handler consumes a published event payload. A returned error is logged,
// nothing more; the bus is not for business-critical workflows.
type Handler func(ctx context.Context, payload map[string]any) error

// delivery is one handler invocation queued for a worker.
type delivery struct {
	topic   string
	payload map[string]any
	handler Handler
}

// Bus is an in-process event bus with a bounded dispatch queue.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler

	ch        chan delivery
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once

	logger *slog.Logger
}

// New creates a Bus with the given queue capacity and worker count and
// starts its workers. Zero or negative values fall back to 64 and 4.
func New(logger *slog.Logger, bufferSize, workers int) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if workers <= 0 {
		workers = 4
	}

	b := &Bus{
		subs:   make(map[string][]Handler),
		ch:     make(chan delivery, bufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}

	b.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go b.run()
	}

	return b
}

func (b *Bus) run() {
	defer b.wg.Done()

	for {
		select {
		case d := <-b.ch:
			b.invoke(d)
		case <-b.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case d := <-b.ch:
					b.invoke(d)
				default:
					return
				}
			}
		}
	}
}

// invoke runs a single handler, recovering panics so one handler cannot
// take down a worker or affect sibling deliveries.
func (b *Bus) invoke(d delivery) {
	defer func() {
		if r := recover(); r != nil {
			observability.EventHandlerFailuresTotal.WithLabelValues(d.topic).Inc()
			b.logger.Error("event handler panicked", "topic", d.topic, "panic", r)
		}
	}()

	// Handlers are not children of the request that published the event;
	// they run under their own context.
	if err := d.handler(context.Background(), d.payload); err != nil {
		observability.EventHandlerFailuresTotal.WithLabelValues(d.topic).Inc()
		b.logger.Error("event handler failed", "topic", d.topic, "error", err)
	}
}

// Subscribe registers a handler for a topic. Handlers for one topic are
// dispatched in subscription order on each publish.
func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], handler)
}

// Publish schedules every handler subscribed to topic without blocking the
// caller. Publishing to a topic with no subscribers is a no-op. When the
// queue is full the delivery is dropped and counted rather than stalling
// the request that published it.
func (b *Bus) Publish(topic string, payload map[string]any) {
	if b.closed.Load() {
		return
	}

	b.mu.RLock()
	handlers := b.subs[topic]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	observability.EventsPublishedTotal.WithLabelValues(topic).Inc()

	for _, h := range handlers {
		select {
		case b.ch <- delivery{topic: topic, payload: payload, handler: h}:
		case <-b.done:
			return
		default:
			b.dropped.Add(1)
			b.logger.Warn("event queue full, delivery dropped", "topic", topic)
		}
	}
}

// Dropped returns the number of deliveries discarded because the queue
// was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops accepting publishes, lets the workers drain the queue, and
// waits for in-flight handlers to finish.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
		b.wg.Wait()
	})
}
