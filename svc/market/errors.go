package market

import "errors"

var (
	ErrListenerPanic = errors.New("event listener panicked")
	ErrInvalidAlert  = errors.New("invalid weather alert")
)
