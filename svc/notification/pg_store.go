package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/agrohub/pkg/pg"
)

// DB is the subset of *pgxpool.Pool the PostgreSQL stores need.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore stores notifications in the notifications table.
type PGStore struct {
	db DB
}

var _ Store = (*PGStore)(nil)

// NewPGStore creates a PostgreSQL-backed Store.
func NewPGStore(db DB) *PGStore {
	return &PGStore{db: db}
}

const notificationColumns = `id, user_id, type, title, message, data, sent_at, read_at, created_at`

func (s *PGStore) Create(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Join(ErrInvalidNotification, err)
	}

	const q = `INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.db.Exec(ctx, q, n.ID, n.UserID, string(n.Type), n.Title, n.Message, raw, n.SentAt, n.ReadAt, n.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidNotification, n.ID)
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkAsRead is a single conditional UPDATE, so concurrent calls set read_at once.
func (s *PGStore) MarkAsRead(ctx context.Context, id uuid.UUID, userID string, at time.Time) (bool, error) {
	const q = `UPDATE notifications SET read_at = $3
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`

	tag, err := s.db.Exec(ctx, q, id, userID, at)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	const q = `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := s.db.Query(ctx, q, userID, opts.UnreadOnly, limit, max(opts.Offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var (
			n    Notification
			typ  string
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &data, &n.SentAt, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = Type(typ)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("decode notification data: %w", err)
			}
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func (s *PGStore) Count(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	const q = `SELECT count(*) FROM notifications WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)`

	var count int
	if err := s.db.QueryRow(ctx, q, userID, unreadOnly).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}
