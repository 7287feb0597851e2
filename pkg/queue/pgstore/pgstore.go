// Package pgstore implements queue.Storage on PostgreSQL.
//
// Claims use a single UPDATE over a FOR UPDATE SKIP LOCKED sub-select, so any
// number of worker processes can poll the same jobs table without handing out
// a job twice. Every other mutation is a compare-and-set on the status column.
// The schema lives in pkg/pg migrations.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/agrohub/pkg/pg"
	"github.com/dmitrymomot/agrohub/pkg/queue"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed queue.Storage.
type Store struct {
	db DB
}

var _ queue.Storage = (*Store)(nil)

// New creates a new PostgreSQL job store
func New(db DB) *Store {
	return &Store{db: db}
}

const jobColumns = `id, kind, payload, status, attempt_count, max_attempts, created_at,
	next_run_at, locked_until, locked_by, last_error, finished_at`

// CreateJob implements queue.EnqueuerRepository
func (s *Store) CreateJob(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	const q = `INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.Exec(ctx, q,
		job.ID, job.Kind, []byte(job.Payload), string(job.Status), job.AttemptCount, job.MaxAttempts,
		job.CreatedAt, job.NextRunAt, job.LockedUntil, job.LockedBy, job.LastError, job.FinishedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", queue.ErrJobExists, job.ID)
		}
		return classify(fmt.Errorf("insert job: %w", err))
	}
	return nil
}

// ClaimJob implements queue.WorkerRepository. Expired leases are charged an
// attempt first, so a job whose worker keeps dying ends in failed.
func (s *Store) ClaimJob(ctx context.Context, workerID uuid.UUID, kinds []string, lease time.Duration) (*queue.Job, error) {
	if kinds == nil {
		kinds = []string{}
	}

	if err := s.reapExpired(ctx); err != nil {
		return nil, err
	}

	const q = `
		WITH next AS (
			SELECT id
			FROM jobs
			WHERE status = 'pending' AND next_run_at <= now()
			  AND (cardinality($2::text[]) = 0 OR kind = ANY($2::text[]))
			ORDER BY next_run_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE jobs j
		SET status = 'running',
		    locked_by = $1,
		    locked_until = now() + ($3::double precision * interval '1 millisecond')
		FROM next
		WHERE j.id = next.id
		RETURNING j.id, j.kind, j.payload, j.status, j.attempt_count, j.max_attempts, j.created_at,
		          j.next_run_at, j.locked_until, j.locked_by, j.last_error, j.finished_at`

	job, err := scanJob(s.db.QueryRow(ctx, q, workerID, kinds, float64(lease.Milliseconds())))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, queue.ErrNoJobToClaim
		}
		return nil, classify(fmt.Errorf("claim job: %w", err))
	}
	return job, nil
}

// reapExpired moves running jobs with a lapsed lease back to pending, or to
// failed when the lost run was their last attempt. SET expressions read the
// pre-update row, so attempt_count + 1 is the count after this charge.
func (s *Store) reapExpired(ctx context.Context) error {
	const q = `UPDATE jobs
		SET attempt_count = attempt_count + 1,
		    status = CASE WHEN attempt_count + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
		    finished_at = CASE WHEN attempt_count + 1 >= max_attempts THEN now() ELSE finished_at END,
		    next_run_at = now(),
		    last_error = $1,
		    locked_until = NULL,
		    locked_by = NULL
		WHERE status = 'running' AND locked_until < now()`

	if _, err := s.db.Exec(ctx, q, queue.ErrLeaseExpired.Error()); err != nil {
		return classify(fmt.Errorf("reap expired leases: %w", err))
	}
	return nil
}

// CompleteJob implements queue.WorkerRepository
func (s *Store) CompleteJob(ctx context.Context, id, workerID uuid.UUID) error {
	const q = `UPDATE jobs
		SET status = 'succeeded', finished_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'running' AND locked_by = $2`

	return s.transition(ctx, id, queue.StatusSucceeded, q, id, workerID)
}

// RetryJob implements queue.WorkerRepository
func (s *Store) RetryJob(ctx context.Context, id, workerID uuid.UUID, nextRunAt time.Time, errMsg string) error {
	const q = `UPDATE jobs
		SET status = 'pending', attempt_count = attempt_count + 1, next_run_at = $3,
		    last_error = $4, locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'running' AND locked_by = $2`

	return s.transition(ctx, id, queue.StatusPending, q, id, workerID, nextRunAt, errMsg)
}

// FailJob implements queue.WorkerRepository
func (s *Store) FailJob(ctx context.Context, id, workerID uuid.UUID, errMsg string) error {
	const q = `UPDATE jobs
		SET status = 'failed', attempt_count = attempt_count + 1, last_error = $3,
		    finished_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'running' AND locked_by = $2`

	return s.transition(ctx, id, queue.StatusFailed, q, id, workerID, errMsg)
}

// GetJob implements queue.Inspector
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
	job, err := scanJob(s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, queue.ErrJobNotFound
		}
		return nil, classify(fmt.Errorf("get job: %w", err))
	}
	return job, nil
}

// ListJobs implements queue.Inspector
func (s *Store) ListJobs(ctx context.Context, filter queue.JobFilter) ([]queue.Job, error) {
	var limit *int
	if filter.Limit > 0 {
		limit = &filter.Limit
	}

	q := `SELECT ` + jobColumns + ` FROM jobs
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR kind = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.db.Query(ctx, q, string(filter.Status), filter.Kind, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("list jobs: %w", err))
	}
	defer rows.Close()

	jobs := make([]queue.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("list jobs: %w", err))
	}
	return jobs, nil
}

// transition runs a status CAS update. Zero affected rows means an unknown
// id, a status the state machine does not allow, or a lease held by someone
// other than the caller.
func (s *Store) transition(ctx context.Context, id uuid.UUID, to queue.Status, q string, args ...any) error {
	tag, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return classify(fmt.Errorf("update job %s: %w", id, err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		current string
		owner   *uuid.UUID
	)
	err = s.db.QueryRow(ctx, `SELECT status, locked_by FROM jobs WHERE id = $1`, id).Scan(&current, &owner)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return queue.ErrJobNotFound
		}
		return classify(fmt.Errorf("load job %s: %w", id, err))
	}
	if !queue.Status(current).CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", queue.ErrInvalidTransition, current, to)
	}
	return fmt.Errorf("%w: job %s", queue.ErrLeaseLost, id)
}

func scanJob(row pgx.Row) (*queue.Job, error) {
	var (
		job     queue.Job
		status  string
		payload []byte
	)
	err := row.Scan(
		&job.ID, &job.Kind, &payload, &status, &job.AttemptCount, &job.MaxAttempts, &job.CreatedAt,
		&job.NextRunAt, &job.LockedUntil, &job.LockedBy, &job.LastError, &job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = queue.Status(status)
	job.Payload = payload
	return &job, nil
}

// classify marks connection-level failures retryable so a handler that
// touches the store surfaces them as transient.
func classify(err error) error {
	if pg.IsConnectionError(err) {
		return queue.Retryable(err)
	}
	return err
}
