package httpserver

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid http server config")
	ErrStart          = errors.New("http server could not start")
	ErrShutdown       = errors.New("http server did not drain before the shutdown timeout")
	ErrAlreadyRunning = errors.New("http server is already running")
)
