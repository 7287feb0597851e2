package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// Signal wakes idle workers after a job is recorded.
type Signal interface {
	Notify(ctx context.Context) error
}

// Enqueuer records jobs as pending. It never runs them.
type Enqueuer struct {
	repo        EnqueuerRepository
	maxAttempts int
	signals     []Signal
	logger      *slog.Logger
	now         func() time.Time
}

// NewEnqueuer creates a new Enqueuer
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &enqueuerOptions{
		maxAttempts: 3,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		repo:        repo,
		maxAttempts: options.maxAttempts,
		signals:     options.signals,
		logger:      options.logger,
		now:         options.now,
	}, nil
}

// Enqueue validates the payload, stores a pending job and returns its id.
func (e *Enqueuer) Enqueue(ctx context.Context, kind string, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	if kind == "" {
		return uuid.Nil, ErrEmptyKind
	}
	if payload == nil {
		return uuid.Nil, ErrPayloadNil
	}
	if v, ok := payload.(Validator); ok {
		if err := v.Validate(); err != nil {
			return uuid.Nil, errors.Join(ErrInvalidPayload, err)
		}
	}

	options := &enqueueOptions{maxAttempts: e.maxAttempts}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxAttempts < 1 || options.maxAttempts > 25 {
		return uuid.Nil, ErrInvalidMaxAttempts
	}

	job, err := e.buildJob(kind, payload, options)
	if err != nil {
		return uuid.Nil, err
	}

	if err := e.repo.CreateJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job %q: %w", kind, err)
	}

	e.logger.DebugContext(ctx, "job enqueued",
		logger.JobID(job.ID),
		logger.JobKind(kind),
		slog.Time("next_run_at", job.NextRunAt))

	// Workers poll anyway; a lost signal only delays pickup.
	for _, s := range e.signals {
		if err := s.Notify(ctx); err != nil {
			e.logger.WarnContext(ctx, "failed to signal workers",
				logger.JobID(job.ID),
				logger.Error(err))
		}
	}

	return job.ID, nil
}

func (e *Enqueuer) buildJob(kind string, payload any, options *enqueueOptions) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, fmt.Errorf("marshal payload of type %T: %w", payload, err))
	}

	now := e.now()
	runAt := now
	if options.runAt != nil {
		runAt = *options.runAt
	} else if options.delay > 0 {
		runAt = now.Add(options.delay)
	}

	return &Job{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     raw,
		Status:      StatusPending,
		MaxAttempts: options.maxAttempts,
		CreatedAt:   now,
		NextRunAt:   runAt,
	}, nil
}
