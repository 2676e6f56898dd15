package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/notionforge/backend/internal/domain/events"
	"github.com/notionforge/backend/internal/domain/ports"
)

// EventType is an alias to the domain type
type EventType = events.EventType

// PlatformEvent represents a published event
type PlatformEvent struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// EventHandler is a function that handles an event.
// Using the type from ports to ensure interface compatibility.
type EventHandler = ports.EventHandler

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus manages the publish-subscribe event system and counts every
// published event type for usage statistics.
// It implements ports.EventPublisher interface.
type EventBus struct {
	handlers map[EventType][]subscription
	counts   map[EventType]int64
	nextID   uint64
	started  time.Time
	logger   *zap.Logger
	mu       sync.RWMutex
}

// Ensure EventBus implements ports.EventPublisher at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		handlers: make(map[EventType][]subscription),
		counts:   make(map[EventType]int64),
		started:  time.Now(),
		logger:   logger,
	}
}

// Subscribe registers a handler for a specific event type
// Returns an unsubscribe function
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()

		subs := eb.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish counts the event and dispatches it to all registered handlers
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.Lock()
	eb.counts[eventType]++
	subs := eb.handlers[eventType]
	eb.mu.Unlock()

	if len(subs) == 0 {
		return nil
	}

	event := PlatformEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	// Execute handlers in sequence
	for _, s := range subs {
		if err := s.handler(ctx, event.Payload); err != nil {
			return fmt.Errorf("EventBus handler error for %s: %w", eventType, err)
		}
	}

	return nil
}

// Emit publishes and logs handler failures instead of returning them.
// Services use it for notifications that must not fail the request.
func (eb *EventBus) Emit(ctx context.Context, eventType EventType, payload interface{}) {
	if err := eb.Publish(ctx, eventType, payload); err != nil {
		eb.logger.Warn("event handler failed", zap.String("event", eventType.String()), zap.Error(err))
	}
}

// Counts returns a snapshot of how often each event type was published
func (eb *EventBus) Counts() map[EventType]int64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	out := make(map[EventType]int64, len(eb.counts))
	for k, v := range eb.counts {
		out[k] = v
	}
	return out
}

// Uptime returns how long the bus has been running
func (eb *EventBus) Uptime() time.Duration {
	return time.Since(eb.started)
}

// Clear removes all handlers and counters (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers = make(map[EventType][]subscription)
	eb.counts = make(map[EventType]int64)
}
