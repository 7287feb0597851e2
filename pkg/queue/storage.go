package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository persists new jobs.
type EnqueuerRepository interface {
	CreateJob(ctx context.Context, job *Job) error
}

// WorkerRepository holds the worker-side transitions. Each method is a
// per-record compare-and-set and returns ErrInvalidTransition when the job
// is not in the expected status, or ErrLeaseLost when workerID no longer
// holds the lease.
type WorkerRepository interface {
	// ClaimJob atomically moves the next due job to running and leases it to
	// workerID. Empty kinds means any kind. Returns ErrNoJobToClaim when idle.
	//
	// A running job whose lease expired counts as a crashed attempt: its
	// attempt_count is incremented and it is failed once max_attempts is
	// reached, otherwise it becomes claimable again.
	ClaimJob(ctx context.Context, workerID uuid.UUID, kinds []string, lease time.Duration) (*Job, error)

	// CompleteJob moves a running job to succeeded.
	CompleteJob(ctx context.Context, id, workerID uuid.UUID) error

	// RetryJob moves a running job back to pending, increments attempt_count
	// and schedules it at nextRunAt.
	RetryJob(ctx context.Context, id, workerID uuid.UUID, nextRunAt time.Time, errMsg string) error

	// FailJob moves a running job to failed and increments attempt_count.
	FailJob(ctx context.Context, id, workerID uuid.UUID, errMsg string) error
}

// Inspector exposes read access for operators.
type Inspector interface {
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)
}

// Storage is the full repository contract.
type Storage interface {
	EnqueuerRepository
	WorkerRepository
	Inspector
}
