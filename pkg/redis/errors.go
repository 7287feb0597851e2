package redis

import "errors"

var (
	ErrEmptyURL   = errors.New("redis url is empty, set REDIS_URL")
	ErrInvalidURL = errors.New("invalid redis url")
	ErrNotReady   = errors.New("redis did not answer PING within the connect budget")
	ErrUnhealthy  = errors.New("redis is unhealthy")
)
