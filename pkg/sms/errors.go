package sms

import "errors"

var (
	ErrFailedToSendSMS    = errors.New("failed to send sms")
	ErrInvalidParams      = errors.New("invalid sms params")
	ErrInvalidConfig      = errors.New("invalid sms config")
	ErrFailedToLoadConfig = errors.New("failed to load aws config")
)
