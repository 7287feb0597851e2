package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context. It reports false
// when the context carries nothing for it.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds extractor output to every record. Extractors run at
// Handle time, so job and request scoped values come from the context the
// log call was made with, not the one the logger was built with.
type contextHandler struct {
	inner      slog.Handler
	extractors []ContextExtractor
}

// NewContextHandler wraps inner. Nil extractors are ignored; with none left
// inner is returned unchanged.
func NewContextHandler(inner slog.Handler, extractors ...ContextExtractor) slog.Handler {
	var kept []ContextExtractor
	for _, ex := range extractors {
		if ex != nil {
			kept = append(kept, ex)
		}
	}
	if len(kept) == 0 {
		return inner
	}
	return &contextHandler{inner: inner, extractors: kept}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.inner.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &contextHandler{inner: h.inner.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{inner: h.inner.WithGroup(name), extractors: h.extractors}
}
