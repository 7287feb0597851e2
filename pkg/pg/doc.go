// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies the embedded
// goose migrations (jobs, notifications, users, the farm catalog and weather
// tables), and Healthcheck adapts the pool to the readiness probe signature.
// The Is*Error helpers classify *pgconn.PgError values so stores can map them
// to their own sentinel errors or mark them retryable.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
package pg
