package notification

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. Suitable for development and testing.
type MemoryStore struct {
	notifications map[string][]Notification // userID -> notifications, insertion order
	ids           map[uuid.UUID]struct{}
	mu            sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory notification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		notifications: make(map[string][]Notification),
		ids:           make(map[uuid.UUID]struct{}),
	}
}

func (s *MemoryStore) Create(ctx context.Context, n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrInvalidNotification)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[n.ID]; ok {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidNotification, n.ID)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.ids[n.ID] = struct{}{}
	s.notifications[n.UserID] = append(s.notifications[n.UserID], clone(n))
	return nil
}

func (s *MemoryStore) MarkAsRead(ctx context.Context, id uuid.UUID, userID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.notifications[userID]
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if list[i].ReadAt != nil {
			return false, nil
		}
		list[i].ReadAt = &at
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.notifications[userID]
	filtered := make([]Notification, 0, len(list))
	// Walk backwards so that equal timestamps keep newest-inserted first.
	for i := len(list) - 1; i >= 0; i-- {
		if opts.UnreadOnly && list[i].IsRead() {
			continue
		}
		filtered = append(filtered, list[i])
	}
	slices.SortStableFunc(filtered, func(a, b Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	start := min(opts.Offset, len(filtered))
	end := len(filtered)
	if opts.Limit > 0 {
		end = min(start+opts.Limit, end)
	}

	out := make([]Notification, 0, end-start)
	for _, n := range filtered[start:end] {
		out = append(out, clone(n))
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context, userID string, unreadOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications[userID] {
		if unreadOnly && n.IsRead() {
			continue
		}
		count++
	}
	return count, nil
}

// Len returns the total number of stored notifications.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// clone returns a copy that shares no mutable state with the stored record.
func clone(n Notification) Notification {
	if n.Data != nil {
		n.Data = maps.Clone(n.Data)
	}
	if n.ReadAt != nil {
		at := *n.ReadAt
		n.ReadAt = &at
	}
	return n
}
