package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// DefaultPerPage is the page size of GetUserNotifications.
const DefaultPerPage = 20

// Service creates notifications and fans them out over the channels the
// recipient allows.
type Service struct {
	store       Store
	resolver    RecipientResolver
	dispatchers []Dispatcher
	bulkLimit   int
	perPage     int
	logger      *slog.Logger
	now         func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDispatchers sets the channels notifications are sent through.
func WithDispatchers(d ...Dispatcher) ServiceOption {
	return func(s *Service) {
		s.dispatchers = append(s.dispatchers, d...)
	}
}

// WithBulkConcurrency bounds the parallel sends of SendBulkNotification.
func WithBulkConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.bulkLimit = n
		}
	}
}

// WithPerPage overrides the page size of GetUserNotifications.
func WithPerPage(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithLogger sets the logger for the Service.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a notification service.
func NewService(store Store, resolver RecipientResolver, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if resolver == nil {
		return nil, ErrResolverNil
	}

	s := &Service{
		store:     store,
		resolver:  resolver,
		bulkLimit: 8,
		perPage:   DefaultPerPage,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SendNotification persists a notification and delivers it on every channel
// the recipient allows. Delivery failures are logged; once the record is
// stored the call succeeds.
func (s *Service) SendNotification(ctx context.Context, userID string, typ Type, title, message string, data map[string]any) (Notification, error) {
	now := s.now().UTC()
	n := Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		SentAt:    now,
		CreatedAt: now,
	}
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}

	// Store first so the record survives even if every channel fails.
	if err := s.store.Create(ctx, n); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}

	rc, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to resolve recipient, notification stored without delivery",
			logger.NotificationID(n.ID.String()),
			logger.UserID(userID),
			logger.Error(err),
		)
		return n, nil
	}

	s.fanOut(ctx, rc, n)
	return n, nil
}

func (s *Service) fanOut(ctx context.Context, rc Recipient, n Notification) {
	for _, d := range s.dispatchers {
		ch := d.Channel()
		if !rc.Preferences.Allows(ch, n.Type) {
			continue
		}
		if err := d.Dispatch(ctx, rc, n); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				logger.NotificationID(n.ID.String()),
				logger.UserID(n.UserID),
				logger.Channel(string(ch)),
				logger.Error(err),
			)
		}
	}
}

// SendBulkNotification sends the same notification to every user. Users are
// processed with bounded concurrency and independently: one failure never
// stops the others. The result holds the stored records in input order;
// per-user errors are joined.
func (s *Service) SendBulkNotification(ctx context.Context, userIDs []string, typ Type, title, message string, data map[string]any) ([]Notification, error) {
	results := make([]*Notification, len(userIDs))
	errs := make([]error, len(userIDs))

	var g errgroup.Group
	g.SetLimit(s.bulkLimit)
	for i, userID := range userIDs {
		g.Go(func() error {
			n, err := s.SendNotification(ctx, userID, typ, title, message, data)
			if err != nil {
				errs[i] = fmt.Errorf("user %s: %w", userID, err)
				return nil
			}
			results[i] = &n
			return nil
		})
	}
	_ = g.Wait()

	sent := make([]Notification, 0, len(userIDs))
	for _, n := range results {
		if n != nil {
			sent = append(sent, *n)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "bulk notification partially failed",
			slog.Int("requested", len(userIDs)),
			slog.Int("sent", len(sent)),
			logger.Error(err),
		)
	}
	return sent, err
}

// MarkAsRead sets read_at on an unread notification owned by userID. Calling
// it for a foreign, unknown or already read notification is a no-op.
func (s *Service) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID string) error {
	if _, err := s.store.MarkAsRead(ctx, notificationID, userID, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// GetUserNotifications returns one page of the user's notifications, newest
// first. Pages start at 1; smaller values are treated as 1.
func (s *Service) GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page int) (Page, error) {
	page = max(page, 1)

	total, err := s.store.Count(ctx, userID, unreadOnly)
	if err != nil {
		return Page{}, fmt.Errorf("failed to count notifications: %w", err)
	}

	items, err := s.store.List(ctx, userID, ListOptions{
		Limit:      s.perPage,
		Offset:     (page - 1) * s.perPage,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return Page{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	return Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PerPage:  s.perPage,
		LastPage: max(1, (total+s.perPage-1)/s.perPage),
	}, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.Count(ctx, userID, true)
}
