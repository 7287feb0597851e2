package config

import "errors"

var (
	ErrParsingConfig = errors.New("config: environment does not match the struct tags")
	ErrNilPointer    = errors.New("config: Load needs a non-nil destination")
)
