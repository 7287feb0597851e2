package queue

import (
	"errors"
	"time"
)

// ErrTransient marks failures worth retrying: network errors, upstream
// outages, lock contention.
var ErrTransient = errors.New("transient failure")

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }
func (e *retryableError) Is(target error) bool {
	return target == ErrTransient
}

// Retryable marks err as transient. Nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Backoff computes the delay before the given retry attempt (1-based).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// ExponentialBackoff yields Base * 2^(attempt-1), capped at Max.
type ExponentialBackoff struct {
	Base time.Duration
	Max  time.Duration
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = 30 * time.Second
	}
	maxDelay := b.Max
	if maxDelay <= 0 {
		maxDelay = time.Hour
	}

	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return min(d, maxDelay)
}
