package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/queue"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newPendingJob(kind string, createdAt, runAt time.Time) *queue.Job {
	return &queue.Job{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     []byte(`{}`),
		Status:      queue.StatusPending,
		MaxAttempts: 3,
		CreatedAt:   createdAt,
		NextRunAt:   runAt,
	}
}

func TestMemoryStorage_ClaimJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	workerID := uuid.New()

	t.Run("empty storage", func(t *testing.T) {
		t.Parallel()

		ms := queue.NewMemoryStorage()
		job, err := ms.ClaimJob(ctx, workerID, nil, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
		assert.Nil(t, job)
	})

	t.Run("earliest due job first and future jobs skipped", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		ms := queue.NewMemoryStorage(queue.WithMemoryClock(clock.Now))
		now := clock.Now()

		later := newPendingJob("a", now, now.Add(-time.Second))
		earlier := newPendingJob("a", now, now.Add(-time.Minute))
		future := newPendingJob("a", now, now.Add(time.Hour))
		for _, j := range []*queue.Job{later, earlier, future} {
			require.NoError(t, ms.CreateJob(ctx, j))
		}

		first, err := ms.ClaimJob(ctx, workerID, nil, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, earlier.ID, first.ID)
		assert.Equal(t, queue.StatusRunning, first.Status)
		require.NotNil(t, first.LockedBy)
		assert.Equal(t, workerID, *first.LockedBy)
		require.NotNil(t, first.LockedUntil)
		assert.Equal(t, now.Add(time.Minute), *first.LockedUntil)

		second, err := ms.ClaimJob(ctx, workerID, nil, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, later.ID, second.ID)

		_, err = ms.ClaimJob(ctx, workerID, nil, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("kind filter", func(t *testing.T) {
		t.Parallel()

		ms := queue.NewMemoryStorage()
		now := time.Now()
		require.NoError(t, ms.CreateJob(ctx, newPendingJob("email", now, now)))

		_, err := ms.ClaimJob(ctx, workerID, []string{"sms"}, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		job, err := ms.ClaimJob(ctx, workerID, []string{"sms", "email"}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "email", job.Kind)
	})

	t.Run("expired lease is reclaimable and costs an attempt", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		ms := queue.NewMemoryStorage(queue.WithMemoryClock(clock.Now))
		j := newPendingJob("a", clock.Now(), clock.Now())
		require.NoError(t, ms.CreateJob(ctx, j))

		_, err := ms.ClaimJob(ctx, uuid.New(), nil, time.Minute)
		require.NoError(t, err)

		_, err = ms.ClaimJob(ctx, workerID, nil, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		clock.Advance(2 * time.Minute)

		reclaimed, err := ms.ClaimJob(ctx, workerID, nil, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, j.ID, reclaimed.ID)
		assert.Equal(t, workerID, *reclaimed.LockedBy)
		assert.Equal(t, 1, reclaimed.AttemptCount)
		require.NotNil(t, reclaimed.LastError)
		assert.Equal(t, queue.ErrLeaseExpired.Error(), *reclaimed.LastError)
	})

	t.Run("crash loop ends in failed after max attempts", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		ms := queue.NewMemoryStorage(queue.WithMemoryClock(clock.Now))
		j := newPendingJob("a", clock.Now(), clock.Now())
		require.NoError(t, ms.CreateJob(ctx, j))

		claims := 0
		for range 10 {
			if _, err := ms.ClaimJob(ctx, uuid.New(), nil, time.Minute); err != nil {
				assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
				break
			}
			claims++
			clock.Advance(2 * time.Minute)
		}
		assert.Equal(t, 3, claims)

		got, err := ms.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusFailed, got.Status)
		assert.Equal(t, 3, got.AttemptCount)
		assert.NotNil(t, got.FinishedAt)
		assert.Nil(t, got.LockedBy)
	})

	t.Run("concurrent claims never hand out a job twice", func(t *testing.T) {
		t.Parallel()

		ms := queue.NewMemoryStorage()
		now := time.Now()
		for range 50 {
			require.NoError(t, ms.CreateJob(ctx, newPendingJob("a", now, now)))
		}

		var (
			mu   sync.Mutex
			seen = make(map[uuid.UUID]int)
			wg   sync.WaitGroup
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					job, err := ms.ClaimJob(ctx, uuid.New(), nil, time.Hour)
					if err != nil {
						return
					}
					mu.Lock()
					seen[job.ID]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, seen, 50)
		for id, n := range seen {
			assert.Equal(t, 1, n, "job %s claimed %d times", id, n)
		}
	})
}

func TestMemoryStorage_Transitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	claimed := func(t *testing.T) (*queue.MemoryStorage, *queue.Job, uuid.UUID) {
		t.Helper()
		ms := queue.NewMemoryStorage()
		now := time.Now()
		require.NoError(t, ms.CreateJob(ctx, newPendingJob("a", now, now)))
		owner := uuid.New()
		job, err := ms.ClaimJob(ctx, owner, nil, time.Minute)
		require.NoError(t, err)
		return ms, job, owner
	}

	t.Run("complete", func(t *testing.T) {
		t.Parallel()

		ms, job, owner := claimed(t)
		require.NoError(t, ms.CompleteJob(ctx, job.ID, owner))

		got, err := ms.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusSucceeded, got.Status)
		assert.NotNil(t, got.FinishedAt)
		assert.Nil(t, got.LockedUntil)
		assert.Nil(t, got.LockedBy)

		assert.ErrorIs(t, ms.CompleteJob(ctx, job.ID, owner), queue.ErrInvalidTransition)
		assert.ErrorIs(t, ms.FailJob(ctx, job.ID, owner, "late"), queue.ErrInvalidTransition)
	})

	t.Run("retry returns the job to pending", func(t *testing.T) {
		t.Parallel()

		ms, job, owner := claimed(t)
		next := time.Now().Add(time.Hour)
		require.NoError(t, ms.RetryJob(ctx, job.ID, owner, next, "timeout"))

		got, err := ms.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusPending, got.Status)
		assert.Equal(t, 1, got.AttemptCount)
		assert.Equal(t, next, got.NextRunAt)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "timeout", *got.LastError)

		_, err = ms.ClaimJob(ctx, uuid.New(), nil, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("fail is terminal", func(t *testing.T) {
		t.Parallel()

		ms, job, owner := claimed(t)
		require.NoError(t, ms.FailJob(ctx, job.ID, owner, "bad payload"))

		got, err := ms.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusFailed, got.Status)
		assert.Equal(t, 1, got.AttemptCount)
		assert.NotNil(t, got.FinishedAt)

		assert.ErrorIs(t, ms.RetryJob(ctx, job.ID, owner, time.Now(), "again"), queue.ErrInvalidTransition)
	})

	t.Run("stale owner cannot touch a reclaimed job", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		ms := queue.NewMemoryStorage(queue.WithMemoryClock(clock.Now))
		j := newPendingJob("a", clock.Now(), clock.Now())
		require.NoError(t, ms.CreateJob(ctx, j))

		stale, current := uuid.New(), uuid.New()
		_, err := ms.ClaimJob(ctx, stale, nil, time.Minute)
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)
		_, err = ms.ClaimJob(ctx, current, nil, time.Minute)
		require.NoError(t, err)

		assert.ErrorIs(t, ms.RetryJob(ctx, j.ID, stale, clock.Now(), "late"), queue.ErrLeaseLost)
		assert.ErrorIs(t, ms.CompleteJob(ctx, j.ID, stale), queue.ErrLeaseLost)
		assert.ErrorIs(t, ms.FailJob(ctx, j.ID, stale, "late"), queue.ErrLeaseLost)

		got, err := ms.GetJob(ctx, j.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.StatusRunning, got.Status)
		assert.Equal(t, current, *got.LockedBy)

		_, err = ms.ClaimJob(ctx, uuid.New(), nil, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		require.NoError(t, ms.CompleteJob(ctx, j.ID, current))
	})

	t.Run("pending job cannot complete", func(t *testing.T) {
		t.Parallel()

		ms := queue.NewMemoryStorage()
		now := time.Now()
		j := newPendingJob("a", now, now)
		require.NoError(t, ms.CreateJob(ctx, j))

		assert.ErrorIs(t, ms.CompleteJob(ctx, j.ID, uuid.New()), queue.ErrInvalidTransition)
		assert.ErrorIs(t, ms.CompleteJob(ctx, uuid.New(), uuid.New()), queue.ErrJobNotFound)
	})
}

func TestMemoryStorage_ListJobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ms := queue.NewMemoryStorage()
	base := time.Now().Add(-time.Hour)

	for i := range 5 {
		kind := "a"
		if i%2 == 1 {
			kind = "b"
		}
		require.NoError(t, ms.CreateJob(ctx, newPendingJob(kind, base.Add(time.Duration(i)*time.Minute), base)))
	}
	require.NoError(t, ms.CreateJob(ctx, &queue.Job{ID: uuid.Nil}))
	assert.ErrorIs(t, ms.CreateJob(ctx, &queue.Job{ID: uuid.Nil}), queue.ErrJobExists)

	all, err := ms.ListJobs(ctx, queue.JobFilter{Kind: "a"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))

	limited, err := ms.ListJobs(ctx, queue.JobFilter{Status: queue.StatusPending, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := ms.ListJobs(ctx, queue.JobFilter{Status: queue.StatusFailed})
	require.NoError(t, err)
	assert.Empty(t, none)
}
