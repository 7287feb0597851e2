package pg_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}
	conn := &pgconn.PgError{Code: "08006"}
	deadlock := &pgconn.PgError{Code: "40P01"}

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))

	assert.True(t, pg.IsDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
	assert.False(t, pg.IsDuplicateKeyError(fk))
	assert.False(t, pg.IsDuplicateKeyError(nil))

	assert.True(t, pg.IsConnectionError(conn))
	assert.True(t, pg.IsConnectionError(deadlock))
	assert.False(t, pg.IsConnectionError(dup))
	assert.False(t, pg.IsConnectionError(nil))
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	ok := pg.Healthcheck(pingFunc(func(context.Context) error { return nil }))
	assert.NoError(t, ok(context.Background()))

	down := errors.New("connection refused")
	bad := pg.Healthcheck(pingFunc(func(context.Context) error { return down }))
	err := bad(context.Background())
	assert.ErrorIs(t, err, pg.ErrUnhealthy)
	assert.ErrorIs(t, err, down)
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(pg.Migrations(), "migrations/*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 4)

	for _, f := range files {
		body, err := fs.ReadFile(pg.Migrations(), f)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", f)
		assert.Contains(t, string(body), "-- +goose Down", f)
	}
}
