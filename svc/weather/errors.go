package weather

import "errors"

var (
	ErrUpstream          = errors.New("weather upstream request failed")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrMissingAPIKey     = errors.New("weather api key is required")
)
