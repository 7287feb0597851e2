package pg

import (
	"context"
	"fmt"
	"time"
)

// probeTimeout bounds one readiness probe.
const probeTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a readiness probe for the pool.
func Healthcheck(conn pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := conn.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrUnhealthy, err)
		}
		return nil
	}
}
