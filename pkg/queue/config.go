package queue

import "time"

// Config holds the worker pool and retry settings.
type Config struct {
	PollInterval time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"2s"`
	Lease        time.Duration `env:"QUEUE_LEASE" envDefault:"10m"`
	JobTimeout   time.Duration `env:"QUEUE_JOB_TIMEOUT" envDefault:"5m"`
	Concurrency  int           `env:"QUEUE_CONCURRENCY" envDefault:"8"`
	MaxAttempts  int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	BackoffBase  time.Duration `env:"QUEUE_BACKOFF_BASE" envDefault:"30s"`
	BackoffMax   time.Duration `env:"QUEUE_BACKOFF_MAX" envDefault:"1h"`
}

// WorkerOptions converts the config into worker options.
func (c Config) WorkerOptions() []WorkerOption {
	return []WorkerOption{
		WithPollInterval(c.PollInterval),
		WithLease(c.Lease),
		WithJobTimeout(c.JobTimeout),
		WithConcurrency(c.Concurrency),
		WithBackoff(ExponentialBackoff{Base: c.BackoffBase, Max: c.BackoffMax}),
	}
}
