package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// Trigger is invoked when a schedule fires. It typically enqueues a job.
type Trigger func(ctx context.Context) error

// Scheduler fires registered triggers on their schedules.
type Scheduler struct {
	entries  map[string]*scheduledEntry
	mu       sync.Mutex
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type scheduledEntry struct {
	name     string
	schedule Schedule
	trigger  Trigger
	nextRun  time.Time
}

// SchedulerOption is a functional option for configuring a Scheduler
type SchedulerOption func(*Scheduler)

// WithCheckInterval sets how often schedules are evaluated
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSchedulerLogger sets the logger for the scheduler
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerClock overrides the time source.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a new scheduler
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		entries:  make(map[string]*scheduledEntry),
		interval: 30 * time.Second,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a named trigger. The first run is the schedule's next time
// after now.
func (s *Scheduler) Add(name string, schedule Schedule, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return ErrTriggerAlreadyRegistered
	}

	next := schedule.Next(s.now())
	s.entries[name] = &scheduledEntry{
		name:     name,
		schedule: schedule,
		trigger:  trigger,
		nextRun:  next,
	}

	s.logger.Info("registered periodic trigger",
		slog.String("trigger", name),
		slog.String("schedule", schedule.String()),
		slog.Time("next_run", next))

	return nil
}

// Start blocks, firing due triggers until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.entries)
	s.mu.Unlock()

	if count == 0 {
		return ErrSchedulerNotConfigured
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

// Run returns a function suitable for errgroup
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		return s.Start(ctx)
	}
}

// tick fires every due trigger once. A trigger that missed several runs
// fires once and is rescheduled from now.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	due := make([]*scheduledEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !now.Before(e.nextRun) {
			e.nextRun = e.schedule.Next(now)
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if err := e.trigger(ctx); err != nil {
			s.logger.ErrorContext(ctx, "periodic trigger failed",
				slog.String("trigger", e.name),
				logger.Error(err))
			continue
		}
		s.logger.DebugContext(ctx, "periodic trigger fired",
			slog.String("trigger", e.name))
	}
}
