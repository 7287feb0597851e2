package email

import "errors"

var (
	ErrFailedToSendEmail = errors.New("email not delivered")
	ErrInvalidConfig     = errors.New("invalid email config")
	ErrInvalidParams     = errors.New("invalid email params")

	// ErrRecipientRejected marks an address the provider refuses outright.
	ErrRecipientRejected = errors.New("recipient rejected by provider")
)
