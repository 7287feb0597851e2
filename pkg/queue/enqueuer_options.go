package queue

import (
	"log/slog"
	"time"
)

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	maxAttempts int
	signals     []Signal
	logger      *slog.Logger
	now         func() time.Time
}

// WithDefaultMaxAttempts sets max attempts for jobs enqueued without WithMaxAttempts.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithSignal adds a wake-up signal fired after every enqueue.
func WithSignal(s Signal) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if s != nil {
			o.signals = append(o.signals, s)
		}
	}
}

// WithEnqueuerLogger sets the logger for the enqueuer
func WithEnqueuerLogger(logger *slog.Logger) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEnqueuerClock overrides the time source.
func WithEnqueuerClock(now func() time.Time) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// EnqueueOption is a functional option for the Enqueue method
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	maxAttempts int
	delay       time.Duration
	runAt       *time.Time
}

// WithMaxAttempts sets the total number of attempts (1-25).
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		o.maxAttempts = n
	}
}

// WithDelay sets a delay before the job can be claimed
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithRunAt sets a specific time before which the job is not claimed
func WithRunAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.runAt = &t
	}
}
