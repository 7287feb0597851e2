// Package redissignal carries queue wake-up signals between processes over
// Redis pub/sub. The enqueuing process publishes after each insert; worker
// processes subscribe and call Wake so a new job is picked up without waiting
// for the next poll. Signals are hints: a lost message only delays pickup.
package redissignal

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/agrohub/pkg/logger"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "agrohub:queue:wake"

// ErrClientNil is returned when no redis client is provided
var ErrClientNil = errors.New("redis client cannot be nil")

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher implements queue.Signal.
type Publisher struct {
	client  publisher
	channel string
}

// NewPublisher creates a wake-up publisher. An empty channel means DefaultChannel.
func NewPublisher(client publisher, channel string) (*Publisher, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}, nil
}

// Notify publishes a wake-up message.
func (p *Publisher) Notify(ctx context.Context) error {
	return p.client.Publish(ctx, p.channel, "wake").Err()
}

// Waker is satisfied by *queue.Worker.
type Waker interface {
	Wake()
}

// Subscriber relays wake-up messages to a local worker.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	waker   Waker
	logger  *slog.Logger
}

// NewSubscriber creates a subscriber that wakes w on every message.
func NewSubscriber(client redis.UniversalClient, channel string, w Waker, log *slog.Logger) (*Subscriber, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Subscriber{client: client, channel: channel, waker: w, logger: log}, nil
}

// Listen blocks until ctx is cancelled.
func (s *Subscriber) Listen(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			s.logger.WarnContext(ctx, "failed to close wake-up subscription", logger.Error(err))
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	s.logger.InfoContext(ctx, "listening for queue wake-ups", slog.String("channel", s.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-messages:
			if !ok {
				return nil
			}
			s.waker.Wake()
		}
	}
}

// Run returns a function suitable for errgroup
func (s *Subscriber) Run(ctx context.Context) func() error {
	return func() error {
		return s.Listen(ctx)
	}
}
