package redis_test

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/agrohub/pkg/redis"
)

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://not-redis"})
	assert.ErrorIs(t, err, redis.ErrInvalidURL)
}

func TestHealthcheck_Unreachable(t *testing.T) {
	t.Parallel()

	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	err := redis.Healthcheck(client)(context.Background())
	assert.ErrorIs(t, err, redis.ErrUnhealthy)
}
