package mongo

import "errors"

var (
	ErrEmptyURL      = errors.New("mongo url is empty, set MONGODB_URL")
	ErrEmptyDatabase = errors.New("mongo database name is empty, set MONGODB_DATABASE")
	ErrConnect       = errors.New("could not reach mongo deployment")
	ErrUnhealthy     = errors.New("mongo is unhealthy")
)
