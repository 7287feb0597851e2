package queue

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in process memory. It is used by tests and
// single-process development runs; jobs do not survive a restart.
type MemoryStorage struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
	now  func() time.Time
}

// MemoryStorageOption configures a MemoryStorage
type MemoryStorageOption func(*MemoryStorage)

// WithMemoryClock overrides the time source used for claims and leases.
func WithMemoryClock(now func() time.Time) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStorage creates a new in-memory storage implementation
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	ms := &MemoryStorage{
		jobs: make(map[uuid.UUID]*Job),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// CreateJob implements EnqueuerRepository
func (ms *MemoryStorage) CreateJob(_ context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}

	ms.jobs[job.ID] = cloneJob(job)
	return nil
}

// ClaimJob implements WorkerRepository. The oldest due job wins.
func (ms *MemoryStorage) ClaimJob(_ context.Context, workerID uuid.UUID, kinds []string, lease time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	ms.reapExpiredLocked(now)

	var best *Job
	for _, job := range ms.jobs {
		if !job.Due(now) {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, job.Kind) {
			continue
		}
		if best == nil || job.NextRunAt.Before(best.NextRunAt) ||
			(job.NextRunAt.Equal(best.NextRunAt) && job.CreatedAt.Before(best.CreatedAt)) {
			best = job
		}
	}

	if best == nil {
		return nil, ErrNoJobToClaim
	}

	lockedUntil := now.Add(lease)
	owner := workerID
	best.Status = StatusRunning
	best.LockedUntil = &lockedUntil
	best.LockedBy = &owner

	return cloneJob(best), nil
}

// reapExpiredLocked charges an attempt to every running job whose lease
// expired. Exhausted jobs fail, the rest become pending at now.
func (ms *MemoryStorage) reapExpiredLocked(now time.Time) {
	for _, job := range ms.jobs {
		if !job.LeaseExpired(now) {
			continue
		}
		msg := ErrLeaseExpired.Error()
		job.AttemptCount++
		job.LastError = &msg
		job.LockedUntil = nil
		job.LockedBy = nil
		if job.AttemptCount >= job.MaxAttempts {
			finished := now
			job.Status = StatusFailed
			job.FinishedAt = &finished
			continue
		}
		job.Status = StatusPending
		job.NextRunAt = now
	}
}

// CompleteJob implements WorkerRepository
func (ms *MemoryStorage) CompleteJob(_ context.Context, id, workerID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.transition(id, workerID, StatusSucceeded)
	if err != nil {
		return err
	}

	finished := ms.now()
	job.FinishedAt = &finished
	return nil
}

// RetryJob implements WorkerRepository
func (ms *MemoryStorage) RetryJob(_ context.Context, id, workerID uuid.UUID, nextRunAt time.Time, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.transition(id, workerID, StatusPending)
	if err != nil {
		return err
	}

	job.AttemptCount++
	job.NextRunAt = nextRunAt
	job.LastError = &errMsg
	return nil
}

// FailJob implements WorkerRepository
func (ms *MemoryStorage) FailJob(_ context.Context, id, workerID uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.transition(id, workerID, StatusFailed)
	if err != nil {
		return err
	}

	finished := ms.now()
	job.AttemptCount++
	job.LastError = &errMsg
	job.FinishedAt = &finished
	return nil
}

// GetJob implements Inspector
func (ms *MemoryStorage) GetJob(_ context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// ListJobs implements Inspector. Newest jobs come first.
func (ms *MemoryStorage) ListJobs(_ context.Context, filter JobFilter) ([]Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Job, 0, len(ms.jobs))
	for _, job := range ms.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && job.Kind != filter.Kind {
			continue
		}
		out = append(out, *cloneJob(job))
	}

	slices.SortFunc(out, func(a, b Job) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// transition checks the state machine and lease ownership, then applies the
// status change and clears the lease. Must be called with ms.mu held.
func (ms *MemoryStorage) transition(id, workerID uuid.UUID, to Status) (*Job, error) {
	job, ok := ms.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if !job.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}
	if job.LockedBy == nil || *job.LockedBy != workerID {
		return nil, fmt.Errorf("%w: job %s", ErrLeaseLost, id)
	}

	job.Status = to
	job.LockedUntil = nil
	job.LockedBy = nil
	return job, nil
}

func cloneJob(j *Job) *Job {
	c := *j
	c.Payload = slices.Clone(j.Payload)
	return &c
}
