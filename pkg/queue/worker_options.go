package queue

import (
	"log/slog"
	"time"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	kinds        []string
	pollInterval time.Duration
	lease        time.Duration
	jobTimeout   time.Duration
	concurrency  int
	backoff      Backoff
	logger       *slog.Logger
	now          func() time.Time
}

// WithKinds restricts the worker to the given job kinds.
func WithKinds(kinds ...string) WorkerOption {
	return func(o *workerOptions) {
		o.kinds = kinds
	}
}

// WithPollInterval sets how often the worker checks for due jobs
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLease sets how long a claimed job stays locked to this worker.
// Keep it longer than the job timeout, or a slow job may be claimed twice.
func WithLease(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lease = d
		}
	}
}

// WithJobTimeout bounds a single handler run.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.jobTimeout = d
		}
	}
}

// WithConcurrency sets the pool size
func WithConcurrency(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBackoff sets the retry delay strategy
func WithBackoff(b Backoff) WorkerOption {
	return func(o *workerOptions) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWorkerClock overrides the time source used for retry scheduling.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(o *workerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
