package queue

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrEmptyKind is returned when a job or handler has no kind
	ErrEmptyKind = errors.New("job kind cannot be empty")

	// ErrInvalidPayload is returned when a payload fails validation or decoding.
	// Such jobs are rejected at enqueue time or failed without retry.
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrInvalidMaxAttempts is returned when max attempts is outside 1..25
	ErrInvalidMaxAttempts = errors.New("max attempts must be between 1 and 25")

	// ErrNoJobToClaim is returned by ClaimJob when nothing is due
	ErrNoJobToClaim = errors.New("no job available to claim")

	// ErrJobNotFound is returned when a job id is unknown to the storage
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists is returned when creating a job whose id is already stored
	ErrJobExists = errors.New("job already exists")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the job's current status
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrLeaseLost is returned when a worker records an outcome for a job
	// whose lease has passed to another worker
	ErrLeaseLost = errors.New("job lease is held by another worker")

	// ErrLeaseExpired is recorded as last_error when a lease runs out and the
	// job is reclaimed
	ErrLeaseExpired = errors.New("job lease expired before the worker reported")

	// ErrLeaseTooShort is returned by NewWorker when the lease would expire
	// before a timed-out job has recorded its outcome
	ErrLeaseTooShort = errors.New("worker lease must exceed job timeout plus store timeout")

	// ErrHandlerNotFound is returned when no handler is registered for a job kind
	ErrHandlerNotFound = errors.New("no handler registered for job kind")

	// ErrNoHandlers is returned when worker has no handlers registered
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrHandlerPanic wraps a recovered handler panic
	ErrHandlerPanic = errors.New("job handler panicked")

	// ErrWorkerStarted is returned when Start is called twice
	ErrWorkerStarted = errors.New("worker already started")

	// ErrWorkerNotStarted is returned when Stop is called before Start
	ErrWorkerNotStarted = errors.New("worker not started")

	// ErrSchedulerNotConfigured is returned when scheduler has no triggers
	ErrSchedulerNotConfigured = errors.New("scheduler has no registered triggers")

	// ErrTriggerAlreadyRegistered is returned when a trigger name is reused
	ErrTriggerAlreadyRegistered = errors.New("trigger already registered")
)
