package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store handles notification persistence and retrieval.
type Store interface {
	// Create stores a new notification.
	Create(ctx context.Context, n Notification) error

	// MarkAsRead sets read_at to at if the notification belongs to userID and
	// is unread. It reports whether a record changed.
	MarkAsRead(ctx context.Context, id uuid.UUID, userID string, at time.Time) (bool, error)

	// List returns a user's notifications ordered newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// Count returns the number of notifications List would return without
	// pagination.
	Count(ctx context.Context, userID string, unreadOnly bool) (int, error)
}

// ListOptions provides filtering and pagination for List.
type ListOptions struct {
	Limit      int  // 0 = no limit
	Offset     int  // Number of notifications to skip
	UnreadOnly bool // Only return notifications with no read_at
}
