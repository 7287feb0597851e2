// Package queue is a storage-agnostic durable job queue with a bounded worker pool.
//
// The package is organised around four pieces:
//
//   - Enqueuer  validates and records jobs as pending, then signals workers
//   - Worker    claims due jobs atomically and runs them on a fixed-size pool
//   - Scheduler fires trigger callbacks on Every/DailyAt schedules
//   - Storage   the small repository contract the first two depend on
//
// # Job lifecycle
//
// A job moves through an explicit state machine:
//
//	pending -> running -> succeeded
//	                   -> failed
//	                   -> pending   (transient failure, attempt_count+1, later next_run_at)
//
// succeeded and failed are terminal. Every storage mutation is a compare-and-set
// on the current status, so two workers can never claim the same job and a
// terminal job can never be re-queued. A running job whose lease expired
// (crashed worker) is claimable again without touching its attempt count.
//
// # Failure classification
//
// A handler signals a transient failure by returning an error wrapped with
// Retryable (or one that matches ErrTransient). The worker then re-queues the
// job with exponential backoff until max_attempts is reached. Any other error,
// a panic, an undecodable payload or a missing handler fails the job at once.
//
// # Usage
//
//	store := queue.NewMemoryStorage()
//	worker, _ := queue.NewWorker(store, queue.WithConcurrency(8))
//	_ = worker.RegisterHandlers(queue.NewHandler("send_report", sendReport))
//
//	enq, _ := queue.NewEnqueuer(store, queue.WithSignal(worker))
//	id, err := enq.Enqueue(ctx, "send_report", ReportPayload{UserID: "u-1"})
//
// pgstore provides the PostgreSQL implementation; redissignal carries wake-up
// signals between processes.
package queue
