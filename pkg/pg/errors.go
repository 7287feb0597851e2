package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyConnectionString = errors.New("postgres connection string is empty, set PG_CONN_URL")
	ErrInvalidConfig         = errors.New("invalid postgres config")
	ErrNotReady              = errors.New("postgres is not ready")
	ErrMigrate               = errors.New("failed to apply schema migrations")
	ErrUnhealthy             = errors.New("postgres is unhealthy")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects unique constraint violations (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, "23505")
}

// IsConnectionError reports failures that are likely to succeed on retry:
// connection exceptions (class 08), serialization failures and deadlocks.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgconn.SafeToRetry(err) ||
			len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" ||
			pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
