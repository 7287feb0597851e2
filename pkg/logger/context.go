package logger

import (
	"context"
	"log/slog"
)

type jobIDKey struct{}

// ContextWithJobID stores the job id so every record logged with ctx carries it.
func ContextWithJobID(ctx context.Context, id any) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

func jobIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if ctx == nil {
		return slog.Attr{}, false
	}
	if v := ctx.Value(jobIDKey{}); v != nil {
		return slog.Any("job_id", v), true
	}
	return slog.Attr{}, false
}
