package notification

import (
	"context"
	"fmt"
	"html"
	"maps"
	"strings"

	"github.com/dmitrymomot/agrohub/pkg/email"
	"github.com/dmitrymomot/agrohub/pkg/push"
	"github.com/dmitrymomot/agrohub/pkg/sms"
)

// Channel names a notification transport.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

// smsMaxRunes keeps a notification within one SMS segment.
const smsMaxRunes = 160

// Dispatcher sends one notification through one channel.
type Dispatcher interface {
	Channel() Channel
	Dispatch(ctx context.Context, to Recipient, n Notification) error
}

// Allows reports whether the preferences and notification type permit
// delivery on c. SMS is reserved for weather alerts.
func (p Preferences) Allows(c Channel, t Type) bool {
	switch c {
	case ChannelEmail:
		return p.Email
	case ChannelPush:
		return p.Push
	case ChannelSMS:
		return p.SMS && t == TypeWeatherAlert
	}
	return false
}

// EmailDispatcher delivers notifications as HTML email.
type EmailDispatcher struct {
	sender email.EmailSender
}

// NewEmailDispatcher creates an email channel.
func NewEmailDispatcher(sender email.EmailSender) *EmailDispatcher {
	return &EmailDispatcher{sender: sender}
}

func (d *EmailDispatcher) Channel() Channel { return ChannelEmail }

func (d *EmailDispatcher) Dispatch(ctx context.Context, to Recipient, n Notification) error {
	if to.Email == "" {
		return fmt.Errorf("%w: %s", ErrNoAddress, ChannelEmail)
	}
	return d.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to.Email,
		Subject:  n.Title,
		BodyHTML: renderHTML(n),
		Tag:      string(n.Type),
	})
}

func renderHTML(n Notification) string {
	var b strings.Builder
	b.WriteString("<html><body><h2>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</h2>")
	for line := range strings.SplitSeq(n.Message, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// PushDispatcher delivers notifications to the user's devices.
type PushDispatcher struct {
	sender push.PushSender
}

// NewPushDispatcher creates a push channel.
func NewPushDispatcher(sender push.PushSender) *PushDispatcher {
	return &PushDispatcher{sender: sender}
}

func (d *PushDispatcher) Channel() Channel { return ChannelPush }

func (d *PushDispatcher) Dispatch(ctx context.Context, to Recipient, n Notification) error {
	topic := to.DeviceTopic
	if topic == "" {
		topic = to.UserID
	}
	if topic == "" {
		return fmt.Errorf("%w: %s", ErrNoAddress, ChannelPush)
	}

	data := make(map[string]any, len(n.Data)+1)
	maps.Copy(data, n.Data)
	data["notification_id"] = n.ID.String()

	return d.sender.SendPush(ctx, push.SendPushParams{
		Topic: topic,
		Title: n.Title,
		Body:  n.Message,
		Kind:  string(n.Type),
		Data:  data,
	})
}

// SMSDispatcher delivers a short text version of the notification.
type SMSDispatcher struct {
	sender sms.SMSSender
}

// NewSMSDispatcher creates an SMS channel.
func NewSMSDispatcher(sender sms.SMSSender) *SMSDispatcher {
	return &SMSDispatcher{sender: sender}
}

func (d *SMSDispatcher) Channel() Channel { return ChannelSMS }

func (d *SMSDispatcher) Dispatch(ctx context.Context, to Recipient, n Notification) error {
	if to.Phone == "" {
		return fmt.Errorf("%w: %s", ErrNoAddress, ChannelSMS)
	}

	text := n.Title
	if msg := strings.TrimSpace(n.Message); msg != "" {
		text += ": " + msg
	}
	return d.sender.SendSMS(ctx, sms.SendSMSParams{
		PhoneNumber: to.Phone,
		Message:     truncate(text, smsMaxRunes),
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
