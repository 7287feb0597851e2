package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// JobID records the job identifier under the key "job_id".
func JobID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("job_id", id)
}

// JobKind records the job kind under the key "job_kind".
func JobKind(kind string) slog.Attr {
	return slog.String("job_kind", kind)
}

// Attempt records the attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Channel records a notification channel under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("notification_id", id)
}

// Event records the event kind under the key "event".
func Event(kind string) slog.Attr {
	return slog.String("event", kind)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
