// Package messaging implements the in-process event bus that connects the
// engine's modules. Delivery is synchronous: Publish runs every matching
// handler on the caller's goroutine before returning, so module reactions
// (counters, achievement evaluation) are visible immediately after the
// triggering operation completes.
package messaging

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a synchronous in-memory implementation of
// shared.EventBus. Handlers are isolated: a handler that returns an error or
// panics is logged and skipped, and the remaining handlers still run. The
// publisher never observes handler failures.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]*subscription
	allHandlers []*subscription
	nextID      uint64
	logger      *slog.Logger
	metrics     *Metrics
}

// subscription pairs a handler with the id used to remove it later.
type subscription struct {
	id      uint64
	handler shared.EventHandler
}

// Config contains configuration for InMemoryEventBus.
type Config struct {
	// Logger for structured logging
	Logger *slog.Logger

	// EnableMetrics enables per-event-type counters
	EnableMetrics bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics: true,
	}
}

// NewInMemoryEventBus creates a new synchronous event bus.
func NewInMemoryEventBus(config Config) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	bus := &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]*subscription),
		allHandlers: make([]*subscription, 0),
		logger:      config.Logger,
	}

	if config.EnableMetrics {
		bus.metrics = NewMetrics()
	}

	return bus
}

// Subscribe registers a handler for a specific event type and returns the
// function that removes it. Calling the returned function more than once is
// harmless. A nil handler is ignored and yields a no-op unsubscribe.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) shared.UnsubscribeFunc {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.logger.Debug("subscribed handler", "event_type", eventType)

	id := sub.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[eventType] = removeSubscription(b.handlers[eventType], id)
	}
}

// SubscribeAll registers a handler for all events and returns the function
// that removes it.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) shared.UnsubscribeFunc {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler}
	b.allHandlers = append(b.allHandlers, sub)
	b.logger.Debug("subscribed global handler")

	id := sub.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.allHandlers = removeSubscription(b.allHandlers, id)
	}
}

// Publish delivers an event to all matching handlers, in subscription order,
// on the calling goroutine. A nil event is ignored.
func (b *InMemoryEventBus) Publish(event shared.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	// Snapshot so handlers can subscribe/unsubscribe while we deliver.
	subs := make([]*subscription, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	subs = append(subs, b.handlers[event.EventType()]...)
	subs = append(subs, b.allHandlers...)
	b.mu.RUnlock()

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if len(subs) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return
	}

	for _, sub := range subs {
		b.execute(event, sub.handler)
	}
}

// execute runs a single handler with panic isolation.
func (b *InMemoryEventBus) execute(event shared.Event, handler shared.EventHandler) {
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return handler(event)
	}()

	duration := time.Since(start)

	if b.metrics != nil {
		b.metrics.RecordHandlerExecution(event.EventType(), duration, err == nil)
	}

	if err != nil {
		b.logger.Error("handler error",
			"event_type", event.EventType(),
			"aggregate_id", event.AggregateID(),
			"duration", duration,
			"error", err,
		)
	}
}

// Metrics returns the bus counters, or nil when metrics are disabled.
func (b *InMemoryEventBus) Metrics() *Metrics {
	return b.metrics
}

// HandlerCount reports the number of handlers registered for an event type,
// not counting global handlers.
func (b *InMemoryEventBus) HandlerCount(eventType shared.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

func removeSubscription(subs []*subscription, id uint64) []*subscription {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
