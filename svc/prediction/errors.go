package prediction

import "errors"

var (
	ErrUpstream     = errors.New("prediction upstream request failed")
	ErrCircuitOpen  = errors.New("prediction circuit breaker is open")
	ErrInvalidCrop  = errors.New("invalid crop id")
	ErrInvalidInput = errors.New("invalid input")
)
