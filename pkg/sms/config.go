package sms

import (
	"context"
	"log/slog"
)

// Config holds SNS settings. An empty region selects the log sender.
type Config struct {
	Region          string `env:"SMS_AWS_REGION"`
	AccessKeyID     string `env:"SMS_AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SMS_AWS_SECRET_ACCESS_KEY"`

	// Endpoint overrides the SNS endpoint, e.g. LocalStack.
	Endpoint string `env:"SMS_SNS_ENDPOINT"`
	// SenderID is shown as the sender where carriers support it.
	SenderID string `env:"SMS_SENDER_ID" envDefault:"AgroHub"`
	// SMSType is Transactional or Promotional.
	SMSType  string `env:"SMS_TYPE" envDefault:"Transactional"`
	// MaxPrice caps the USD price per message.
	MaxPrice string `env:"SMS_MAX_PRICE"`
}

// NewFromConfig returns the SNS sender when a region is configured and the
// log sender otherwise.
func NewFromConfig(ctx context.Context, cfg Config, log *slog.Logger) (SMSSender, error) {
	if cfg.Region == "" {
		return NewLogSender(log), nil
	}
	return NewSNSSender(ctx, cfg)
}
