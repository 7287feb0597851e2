// Package logger builds the service's *slog.Logger and keeps attribute naming
// consistent across the pipeline.
//
// New returns a logger whose handler is wrapped by a context handler, which
// pulls request- or job-scoped values out of context.Context on every record.
// Attribute helpers (JobID, JobKind, Channel, UserID, Error, ...) return empty
// attributes for nil input, so call sites never need a nil check:
//
//	log := logger.New(logger.WithEnvironment("production", "agrohub"))
//	ctx = logger.ContextWithJobID(ctx, job.ID)
//	log.InfoContext(ctx, "job finished", logger.JobKind(job.Kind), logger.Error(err))
package logger
