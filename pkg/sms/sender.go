package sms

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageRunes is the longest body accepted. Longer texts are split by the
// carrier and billed per segment, so callers should trim first.
const MaxMessageRunes = 1600

// SMSSender sends a single text message.
type SMSSender interface {
	SendSMS(ctx context.Context, params SendSMSParams) error
}

// SendSMSParams represents a single outbound text.
type SendSMSParams struct {
	PhoneNumber string `json:"phone_number"` // E.164, e.g. +254700000001
	Message     string `json:"message"`
}

var e164Regex = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Validate checks the phone number format and message length.
func (p SendSMSParams) Validate() error {
	switch {
	case !e164Regex.MatchString(p.PhoneNumber):
		return fmt.Errorf("%w: PhoneNumber must be in E.164 format", ErrInvalidParams)
	case strings.TrimSpace(p.Message) == "":
		return fmt.Errorf("%w: Message is required", ErrInvalidParams)
	case utf8.RuneCountInString(p.Message) > MaxMessageRunes:
		return fmt.Errorf("%w: Message exceeds %d characters", ErrInvalidParams, MaxMessageRunes)
	}
	return nil
}
