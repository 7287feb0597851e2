package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations exposes the embedded schema files.
func Migrations() fs.FS {
	return embeddedMigrations
}

// Migrate applies the schema with goose. goose speaks database/sql, so the
// pool is bridged through pgx's stdlib adapter.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	dir := "migrations"
	goose.SetBaseFS(embeddedMigrations)

	if cfg.MigrationsPath != "" {
		if _, err := os.Stat(cfg.MigrationsPath); err != nil {
			return errors.Join(ErrMigrate, err)
		}
		dir = cfg.MigrationsPath
		goose.SetBaseFS(nil)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "failed to close migration connection", logger.Error(err))
		}
	}(db)

	goose.SetLogger(gooseLogger{log: log.With(logger.Component("migrate"))})
	if cfg.MigrationsTable != "" {
		goose.SetTableName(cfg.MigrationsTable)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	return nil
}

// gooseLogger routes goose output to slog. Fatalf is logged, not fatal:
// Migrate reports the failure as an error instead.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
