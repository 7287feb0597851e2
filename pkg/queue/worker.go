package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// storeTimeout bounds the bookkeeping calls made after a handler returns.
const storeTimeout = 10 * time.Second

// Worker claims due jobs and runs them on a bounded pool.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	kinds    []string
	workerID uuid.UUID
	sem      chan struct{}
	wake     chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex

	pollInterval time.Duration
	lease        time.Duration
	jobTimeout   time.Duration
	backoff      Backoff
	logger       *slog.Logger
	now          func() time.Time

	cancel  context.CancelFunc
	runDone chan struct{}
}

// NewWorker creates a new job worker
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		pollInterval: 2 * time.Second,
		lease:        10 * time.Minute,
		jobTimeout:   5 * time.Minute,
		concurrency:  1,
		backoff:      ExponentialBackoff{Base: 30 * time.Second, Max: time.Hour},
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}
	// A lease that can lapse mid-run lets a second worker claim the job.
	if options.lease <= options.jobTimeout+storeTimeout {
		return nil, fmt.Errorf("%w: lease %s, job timeout %s", ErrLeaseTooShort, options.lease, options.jobTimeout)
	}

	return &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		kinds:        options.kinds,
		workerID:     uuid.New(),
		sem:          make(chan struct{}, options.concurrency),
		wake:         make(chan struct{}, 1),
		pollInterval: options.pollInterval,
		lease:        options.lease,
		jobTimeout:   options.jobTimeout,
		backoff:      options.backoff,
		logger:       options.logger,
		now:          options.now,
	}, nil
}

// ID returns the worker id stamped on claimed jobs.
func (w *Worker) ID() uuid.UUID {
	return w.workerID
}

// RegisterHandler registers a single job handler. A later handler for the
// same kind replaces the earlier one.
func (w *Worker) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}
	if handler.Kind() == "" {
		return ErrEmptyKind
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[handler.Kind()] = handler
	return nil
}

// RegisterHandlers registers multiple job handlers
func (w *Worker) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := w.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Notify implements Signal so an in-process Enqueuer can wake the pool.
func (w *Worker) Notify(context.Context) error {
	w.Wake()
	return nil
}

// Wake asks the run loop to claim jobs now instead of at the next tick.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start begins processing jobs in the background
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerStarted
	}
	if len(w.handlers) == 0 {
		return ErrNoHandlers
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.runDone = make(chan struct{})

	go w.run(runCtx, w.runDone)

	w.logger.Info("worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Any("kinds", w.kinds),
		slog.Int("concurrency", cap(w.sem)))

	return nil
}

// Stop stops claiming new jobs and waits for running ones to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}
	cancel, runDone := w.cancel, w.runDone
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	<-runDone

	w.logger.Info("worker stopping, waiting for running jobs",
		slog.String("worker_id", w.workerID.String()))

	w.wg.Wait()

	w.logger.Info("worker stopped",
		slog.String("worker_id", w.workerID.String()))

	return nil
}

// Run starts the worker and returns a function suitable for errgroup
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return w.Stop()
	}
}

// run is the claim loop. It is the only caller of wg.Add, and Stop waits for
// it to exit before wg.Wait, so no job starts after shutdown begins.
func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.fill(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// fill claims jobs until the pool is full or nothing is due.
func (w *Worker) fill(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case w.sem <- struct{}{}:
		default:
			return
		}

		job, err := w.repo.ClaimJob(ctx, w.workerID, w.kinds, w.lease)
		if err != nil || job == nil {
			<-w.sem
			if err != nil && !errors.Is(err, ErrNoJobToClaim) && ctx.Err() == nil {
				w.logger.Error("failed to claim job",
					slog.String("worker_id", w.workerID.String()),
					logger.Error(err))
			}
			return
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			w.process(job)
		}()
	}
}

// process executes a claimed job and records the outcome.
func (w *Worker) process(job *Job) {
	start := time.Now()
	attempt := job.AttemptCount + 1

	// Not derived from the run context: shutdown lets running jobs finish.
	ctx, cancel := context.WithTimeout(context.Background(), w.jobTimeout)
	defer cancel()
	ctx = logger.ContextWithJobID(ctx, job.ID)

	w.logger.DebugContext(ctx, "job claimed",
		logger.JobKind(job.Kind),
		logger.Attempt(attempt))

	w.mu.RLock()
	handler, ok := w.handlers[job.Kind]
	w.mu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("%w: %s", ErrHandlerNotFound, job.Kind)
	} else {
		err = w.execute(ctx, handler, job)
	}

	if err := w.finish(ctx, job, err, time.Since(start)); err != nil {
		w.logger.ErrorContext(ctx, "failed to record job outcome",
			logger.JobKind(job.Kind),
			logger.Error(err))
	}
}

// execute runs the handler, converting a panic into a permanent failure.
func (w *Worker) execute(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return handler.Handle(ctx, job.Payload)
}

// finish applies the retry policy:
//   - success                         -> succeeded
//   - transient, attempts remaining   -> pending with backoff
//   - transient, attempts exhausted   -> failed
//   - anything else                   -> failed
func (w *Worker) finish(ctx context.Context, job *Job, execErr error, d time.Duration) error {
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	attempt := job.AttemptCount + 1

	if execErr == nil {
		if err := w.repo.CompleteJob(storeCtx, job.ID, w.workerID); err != nil {
			return fmt.Errorf("complete job %s: %w", job.ID, err)
		}
		w.logger.InfoContext(ctx, "job succeeded",
			logger.JobKind(job.Kind),
			logger.Attempt(attempt),
			logger.Duration(d))
		return nil
	}

	if IsRetryable(execErr) && attempt < job.MaxAttempts {
		nextRunAt := w.now().Add(w.backoff.Delay(attempt))
		if err := w.repo.RetryJob(storeCtx, job.ID, w.workerID, nextRunAt, execErr.Error()); err != nil {
			return fmt.Errorf("retry job %s: %w", job.ID, err)
		}
		w.logger.WarnContext(ctx, "job failed, retry scheduled",
			logger.JobKind(job.Kind),
			logger.Attempt(attempt),
			slog.Int("max_attempts", job.MaxAttempts),
			slog.Time("next_run_at", nextRunAt),
			logger.Duration(d),
			logger.Error(execErr))
		return nil
	}

	if err := w.repo.FailJob(storeCtx, job.ID, w.workerID, execErr.Error()); err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	w.logger.ErrorContext(ctx, "job failed permanently",
		logger.JobKind(job.Kind),
		logger.Attempt(attempt),
		slog.Int("max_attempts", job.MaxAttempts),
		slog.Bool("retryable", IsRetryable(execErr)),
		logger.Duration(d),
		logger.Error(execErr))
	return nil
}
