package sms

import (
	"context"
	"log/slog"
)

// LogSender logs texts instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a development sender.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log}
}

// SendSMS implements SMSSender.
func (s *LogSender) SendSMS(ctx context.Context, params SendSMSParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sms (dev)",
		slog.String("to", params.PhoneNumber),
		slog.String("message", params.Message))
	return nil
}
