package notification

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidNotification  = errors.New("invalid notification")
	ErrRecipientNotFound    = errors.New("recipient not found")
	ErrNoAddress            = errors.New("recipient has no address for channel")
	ErrStoreNil             = errors.New("notification store cannot be nil")
	ErrResolverNil          = errors.New("recipient resolver cannot be nil")
)
