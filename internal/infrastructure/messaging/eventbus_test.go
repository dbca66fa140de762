package messaging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aprende-hub/mastery-engine/internal/domain/shared"
)

func newTestBus() *InMemoryEventBus {
	cfg := DefaultConfig()
	cfg.Logger = slog.Default()
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_DeliversToSubscriber(t *testing.T) {
	bus := newTestBus()

	var received []shared.Event
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})

	event := shared.NewXPGainedEvent("student-1", 50, 150, "practice")
	bus.Publish(event)

	assert.Len(t, received, 1)
	assert.Equal(t, shared.EventXPGained, received[0].EventType())
	assert.Equal(t, "student-1", received[0].AggregateID())
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := newTestBus()

	calls := 0
	bus.Subscribe(shared.EventLevelUp, func(e shared.Event) error {
		calls++
		return nil
	})

	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))
	assert.Equal(t, 0, calls)

	bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2))
	assert.Equal(t, 1, calls)
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := newTestBus()

	calls := 0
	bus.SubscribeAll(func(e shared.Event) error {
		calls++
		return nil
	})

	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))
	bus.Publish(shared.NewLevelUpEvent("student-1", 1, 2))

	assert.Equal(t, 2, calls)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newTestBus()

	order := []string{}
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventBus_HandlerPanicIsolated(t *testing.T) {
	bus := newTestBus()

	survived := false
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		panic("handler bug")
	})
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		survived = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))
	})
	assert.True(t, survived)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.HandlerFailures)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := newTestBus()

	calls := 0
	unsubscribe := bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		calls++
		return nil
	})

	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))
	assert.Equal(t, 1, calls)

	unsubscribe()
	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 200, "practice"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.HandlerCount(shared.EventXPGained))

	// Second call is a no-op.
	assert.NotPanics(t, func() { unsubscribe() })
}

func TestEventBus_UnsubscribeRemovesOnlyOwnHandler(t *testing.T) {
	bus := newTestBus()

	firstCalls, secondCalls := 0, 0
	unsubFirst := bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		firstCalls++
		return nil
	})
	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		secondCalls++
		return nil
	})

	unsubFirst()
	bus.Publish(shared.NewXPGainedEvent("student-1", 50, 150, "practice"))

	assert.Equal(t, 0, firstCalls)
	assert.Equal(t, 1, secondCalls)
}

func TestEventBus_SynchronousDelivery(t *testing.T) {
	bus := newTestBus()

	done := false
	bus.Subscribe(shared.EventStreakUpdated, func(e shared.Event) error {
		done = true
		return nil
	})

	bus.Publish(shared.NewStreakUpdatedEvent("student-1", 3, 3, false))

	// Synchronous bus: the handler has run by the time Publish returns.
	assert.True(t, done)
}

func TestEventBus_NilEventAndHandler(t *testing.T) {
	bus := newTestBus()

	unsub := bus.Subscribe(shared.EventXPGained, nil)
	assert.NotNil(t, unsub)
	assert.NotPanics(t, func() { unsub() })

	assert.NotPanics(t, func() { bus.Publish(nil) })
}

func TestEventBus_MetricsCounters(t *testing.T) {
	bus := newTestBus()

	bus.Subscribe(shared.EventXPGained, func(e shared.Event) error { return nil })

	bus.Publish(shared.NewXPGainedEvent("student-1", 10, 10, "practice"))
	bus.Publish(shared.NewXPGainedEvent("student-1", 10, 20, "practice"))

	assert.Equal(t, int64(2), bus.Metrics().Published(shared.EventXPGained))
	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}
