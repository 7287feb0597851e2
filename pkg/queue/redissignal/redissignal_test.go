package redissignal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/queue/redissignal"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	return redis.NewIntResult(1, args.Error(0))
}

func TestPublisher_Notify(t *testing.T) {
	t.Parallel()

	t.Run("default channel", func(t *testing.T) {
		t.Parallel()

		client := new(mockPublisher)
		client.On("Publish", mock.Anything, redissignal.DefaultChannel, "wake").Return(nil).Once()

		p, err := redissignal.NewPublisher(client, "")
		require.NoError(t, err)
		require.NoError(t, p.Notify(context.Background()))
		client.AssertExpectations(t)
	})

	t.Run("publish error is returned", func(t *testing.T) {
		t.Parallel()

		client := new(mockPublisher)
		client.On("Publish", mock.Anything, "custom", "wake").Return(errors.New("conn refused")).Once()

		p, err := redissignal.NewPublisher(client, "custom")
		require.NoError(t, err)
		assert.EqualError(t, p.Notify(context.Background()), "conn refused")
	})

	t.Run("nil client", func(t *testing.T) {
		t.Parallel()

		_, err := redissignal.NewSubscriber(nil, "", nil, nil)
		assert.ErrorIs(t, err, redissignal.ErrClientNil)
	})
}
