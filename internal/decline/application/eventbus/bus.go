package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"decline-cloud/internal/decline/application/events"
)

// EventHandler handles a published decline event.
type EventHandler func(ctx context.Context, event events.Event) error

// EventBus delivers decline events to subscribed handlers.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Subscribe(eventType string, handler EventHandler)
}

// ErrNilEvent is returned when a nil event is published.
var ErrNilEvent = errors.New("eventbus: nil event")

// ErrInvalidEventType is returned when a typed handler receives another type.
var ErrInvalidEventType = errors.New("eventbus: invalid event type")

// HandlerError reports a failed handler together with the pass and well the
// event belonged to.
type HandlerError struct {
	EventType string
	Key       events.Key
	Err       error
}

func (e *HandlerError) Error() string {
	if e.Key.WellID == "" {
		return fmt.Sprintf("eventbus: %s run=%s: %v", e.EventType, e.Key.RunID, e.Err)
	}
	return fmt.Sprintf("eventbus: %s run=%s well=%s: %v", e.EventType, e.Key.RunID, e.Key.WellID, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// InMemoryBus delivers events synchronously on the publishing goroutine, in
// subscription order. Every handler runs even when an earlier one fails.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

// NewInMemoryBus constructs a new in-memory bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]EventHandler),
	}
}

// Publish dispatches an event to all handlers of its type. Handler failures
// are returned joined, each as a *HandlerError.
func (b *InMemoryBus) Publish(ctx context.Context, event events.Event) error {
	if event == nil {
		return ErrNilEvent
	}
	eventType := EventType(event)

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.handlers[eventType]...)
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, &HandlerError{EventType: eventType, Key: event.EventKey(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for an event type.
func (b *InMemoryBus) Subscribe(eventType string, handler EventHandler) {
	if eventType == "" || handler == nil {
		return
	}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// EventType returns the type name an event is routed by, e.g. "events.WellFitted".
func EventType(event events.Event) string {
	if event == nil {
		return ""
	}
	return fmt.Sprintf("%T", event)
}

// EventTypeOf returns the routing name for event type T.
func EventTypeOf[T events.Event]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

// SubscribeTyped registers a handler that only receives events of type T.
func SubscribeTyped[T events.Event](bus EventBus, handler func(ctx context.Context, evt T) error) {
	if bus == nil || handler == nil {
		return
	}
	bus.Subscribe(EventTypeOf[T](), func(ctx context.Context, event events.Event) error {
		evt, ok := event.(T)
		if !ok {
			return ErrInvalidEventType
		}
		return handler(ctx, evt)
	})
}
