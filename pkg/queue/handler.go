package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// Handler executes jobs of one kind.
type Handler interface {
	Kind() string
	Handle(ctx context.Context, payload json.RawMessage) error
}

// HandlerFunc processes a decoded payload.
type HandlerFunc[T any] func(ctx context.Context, payload T) error

// Validator is implemented by payloads that can check themselves. Enqueue
// rejects invalid payloads; handlers re-check after decoding.
type Validator interface {
	Validate() error
}

// NewHandler builds a Handler that decodes the JSON payload into T.
func NewHandler[T any](kind string, fn HandlerFunc[T]) Handler {
	return &typedHandler[T]{kind: kind, fn: fn}
}

type typedHandler[T any] struct {
	kind string
	fn   HandlerFunc[T]
}

func (h *typedHandler[T]) Kind() string {
	return h.kind
}

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var p T
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	if v, ok := any(p).(Validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return h.fn(ctx, p)
}
