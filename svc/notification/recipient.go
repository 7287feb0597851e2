package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrymomot/agrohub/pkg/pg"
)

// Preferences are a user's channel opt-ins.
type Preferences struct {
	Email bool `json:"email_notifications"`
	Push  bool `json:"push_notifications"`
	SMS   bool `json:"sms_notifications"`
}

// DefaultPreferences returns the preferences of a user who never changed
// them: email and push on, SMS off.
func DefaultPreferences() Preferences {
	return Preferences{Email: true, Push: true, SMS: false}
}

// Recipient is everything needed to reach one user.
type Recipient struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	DeviceTopic string      `json:"device_topic,omitempty"` // Push channel suffix, defaults to UserID
	Preferences Preferences `json:"preferences"`
}

// RecipientResolver looks up contact details and preferences. It is owned by
// the user-profile subsystem.
type RecipientResolver interface {
	Resolve(ctx context.Context, userID string) (Recipient, error)
}

// StaticResolver serves recipients from memory. Unknown users resolve to a
// recipient with default preferences and no addresses.
type StaticResolver struct {
	recipients map[string]Recipient
	mu         sync.RWMutex
}

// NewStaticResolver creates a resolver seeded with recipients.
func NewStaticResolver(recipients ...Recipient) *StaticResolver {
	r := &StaticResolver{recipients: make(map[string]Recipient, len(recipients))}
	for _, rc := range recipients {
		r.recipients[rc.UserID] = rc
	}
	return r
}

// Set adds or replaces a recipient.
func (r *StaticResolver) Set(rc Recipient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recipients[rc.UserID] = rc
}

func (r *StaticResolver) Resolve(ctx context.Context, userID string) (Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rc, ok := r.recipients[userID]; ok {
		return rc, nil
	}
	return Recipient{UserID: userID, Preferences: DefaultPreferences()}, nil
}

// PGResolver reads recipients from the users table. NULL preference columns
// fall back to DefaultPreferences.
type PGResolver struct {
	db DB
}

// NewPGResolver creates a PostgreSQL-backed RecipientResolver.
func NewPGResolver(db DB) *PGResolver {
	return &PGResolver{db: db}
}

func (r *PGResolver) Resolve(ctx context.Context, userID string) (Recipient, error) {
	const q = `SELECT id, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(device_topic, ''),
			email_notifications, push_notifications, sms_notifications
		FROM users WHERE id = $1`

	var (
		rc               Recipient
		email, push, sms *bool
	)
	err := r.db.QueryRow(ctx, q, userID).Scan(&rc.UserID, &rc.Email, &rc.Phone, &rc.DeviceTopic, &email, &push, &sms)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Recipient{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, userID)
		}
		return Recipient{}, fmt.Errorf("resolve recipient: %w", err)
	}

	rc.Preferences = DefaultPreferences()
	if email != nil {
		rc.Preferences.Email = *email
	}
	if push != nil {
		rc.Preferences.Push = *push
	}
	if sms != nil {
		rc.Preferences.SMS = *sms
	}
	return rc, nil
}
