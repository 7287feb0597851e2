// Package push delivers in-app push messages over Redis pub/sub. Each user
// has a channel; gateway processes holding device connections subscribe to
// it and forward the JSON envelope to connected clients.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFailedToPush  = errors.New("failed to publish push message")
	ErrInvalidParams = errors.New("invalid push params")
)

// PushSender delivers one message to one user's devices.
type PushSender interface {
	SendPush(ctx context.Context, params SendPushParams) error
}

// SendPushParams is the message handed to device gateways.
type SendPushParams struct {
	Topic string         `json:"-"` // Channel suffix, usually the user id
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Kind  string         `json:"kind,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Validate checks the required fields.
func (p SendPushParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Topic) == "":
		return fmt.Errorf("%w: Topic is required", ErrInvalidParams)
	case strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: Title is required", ErrInvalidParams)
	}
	return nil
}

// Config holds push delivery settings.
type Config struct {
	ChannelPrefix string `env:"PUSH_CHANNEL_PREFIX" envDefault:"agrohub:push:"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// envelope is the wire format published to the channel.
type envelope struct {
	SendPushParams
	SentAt time.Time `json:"sent_at"`
}

// RedisSender publishes push messages to per-topic channels.
type RedisSender struct {
	client publisher
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisSender creates a Redis-backed push sender.
func NewRedisSender(client publisher, cfg Config, log *slog.Logger) *RedisSender {
	if log == nil {
		log = slog.Default()
	}
	return &RedisSender{client: client, prefix: cfg.ChannelPrefix, now: time.Now, logger: log}
}

// Channel returns the pub/sub channel for a topic.
func (s *RedisSender) Channel(topic string) string {
	return s.prefix + topic
}

// SendPush implements PushSender. Zero subscribers is not an error: the
// user simply has no connected device and will see the stored notification.
func (s *RedisSender) SendPush(ctx context.Context, params SendPushParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(envelope{SendPushParams: params, SentAt: s.now().UTC()})
	if err != nil {
		return errors.Join(ErrFailedToPush, err)
	}

	receivers, err := s.client.Publish(ctx, s.Channel(params.Topic), payload).Result()
	if err != nil {
		return errors.Join(ErrFailedToPush, err)
	}

	s.logger.DebugContext(ctx, "push published",
		slog.String("channel", s.Channel(params.Topic)),
		slog.Int64("receivers", receivers))
	return nil
}
