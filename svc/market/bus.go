package market

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// Listener reacts to a published event. A returned error is logged by the Bus
// and goes no further.
type Listener func(ctx context.Context, e Event) error

// Bus is an in-process publish/subscribe dispatcher.
// All methods are safe for concurrent use.
type Bus struct {
	listeners map[Kind][]Listener
	logger    *slog.Logger
	mu        sync.RWMutex
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report listener failures.
func WithLogger(log *slog.Logger) BusOption {
	return func(b *Bus) {
		if log != nil {
			b.logger = log
		}
	}
}

// NewBus creates an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		listeners: make(map[Kind][]Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers l for events of kind. Listeners registered before a
// Publish call are observed by it; there is no unsubscribe.
func (b *Bus) Subscribe(kind Kind, l Listener) {
	if l == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = append(b.listeners[kind], l)
}

// Publish runs every listener of e's kind in registration order on the
// caller's goroutine. Listener errors and panics are logged and isolated.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if isNilEvent(e) {
		b.logger.LogAttrs(ctx, slog.LevelWarn, "nil event dropped",
			slog.String("event_type", fmt.Sprintf("%T", e)))
		return
	}

	// Snapshot so listeners may subscribe or publish without deadlocking.
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[e.Kind()]...)
	b.mu.RUnlock()

	for i, l := range listeners {
		if err := b.invoke(ctx, l, e); err != nil {
			b.logger.LogAttrs(ctx, slog.LevelError, "event listener failed",
				logger.Event(string(e.Kind())),
				slog.Int("listener_index", i),
				logger.Error(err),
			)
		}
	}
}

// Listeners returns the number of listeners registered for kind.
func (b *Bus) Listeners(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// isNilEvent reports whether e is nil or a nil pointer wrapped in the interface.
func isNilEvent(e Event) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (b *Bus) invoke(ctx context.Context, l Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return l(ctx, e)
}

// OnOrderCreated subscribes fn to OrderCreated events.
func OnOrderCreated(b *Bus, fn func(ctx context.Context, e OrderCreated) error) {
	b.Subscribe(KindOrderCreated, typed(fn))
}

// OnOrderStatusChanged subscribes fn to OrderStatusChanged events.
func OnOrderStatusChanged(b *Bus, fn func(ctx context.Context, e OrderStatusChanged) error) {
	b.Subscribe(KindOrderStatusChanged, typed(fn))
}

// OnWeatherAlertIssued subscribes fn to WeatherAlertIssued events.
func OnWeatherAlertIssued(b *Bus, fn func(ctx context.Context, e WeatherAlertIssued) error) {
	b.Subscribe(KindWeatherAlertIssued, typed(fn))
}

func typed[T Event](fn func(ctx context.Context, e T) error) Listener {
	return func(ctx context.Context, e Event) error {
		switch v := any(e).(type) {
		case T:
			return fn(ctx, v)
		case *T:
			if v != nil {
				return fn(ctx, *v)
			}
		}
		return fmt.Errorf("unexpected event type %T for kind %s", e, e.Kind())
	}
}
