package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification. It doubles as the email tag.
type Type string

const (
	TypeOrderConfirmation Type = "order_confirmation"
	TypeOrderStatusUpdate Type = "order_status_update"
	TypeWeatherAlert      Type = "weather_alert"
	TypePrediction        Type = "prediction"
	TypeGeneral           Type = "general"
)

// Notification is a message stored for one user. ReadAt is the only field
// that changes after creation, and only once.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsRead reports whether the user acknowledged the notification.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Validate checks the fields required to store a notification.
func (n Notification) Validate() error {
	switch {
	case strings.TrimSpace(n.UserID) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidNotification)
	case strings.TrimSpace(string(n.Type)) == "":
		return fmt.Errorf("%w: type is required", ErrInvalidNotification)
	case strings.TrimSpace(n.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidNotification)
	}
	return nil
}

// Page is one page of a user's notifications, newest first.
type Page struct {
	Items    []Notification `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PerPage  int            `json:"per_page"`
	LastPage int            `json:"last_page"`
}
