package email

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Postmark error codes that mean the address itself will not accept mail.
// Retrying these only burns quota.
const (
	postmarkInvalidEmail      = 300
	postmarkInactiveRecipient = 406
)

// PostmarkOption customises the underlying Postmark client.
type PostmarkOption func(*postmark.Client)

// WithPostmarkBaseURL points the client at another API host.
func WithPostmarkBaseURL(url string) PostmarkOption {
	return func(c *postmark.Client) { c.BaseURL = url }
}

type postmarkSender struct {
	api     *postmark.Client
	from    string
	replyTo string
}

// NewPostmarkClient returns a sender for Postmark's transactional API.
// Replies go to SupportEmail when it is set.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (EmailSender, error) {
	switch {
	case cfg.PostmarkServerToken == "":
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	case cfg.SenderEmail == "":
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	case !emailRegex.MatchString(cfg.SenderEmail):
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	case cfg.SupportEmail != "" && !emailRegex.MatchString(cfg.SupportEmail):
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	api := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	for _, opt := range opts {
		opt(api)
	}
	return &postmarkSender{api: api, from: cfg.SenderEmail, replyTo: cfg.SupportEmail}, nil
}

func (s *postmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := s.api.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	switch resp.ErrorCode {
	case 0:
		return nil
	case postmarkInvalidEmail, postmarkInactiveRecipient:
		return fmt.Errorf("%w: %w: postmark %d %s", ErrFailedToSendEmail, ErrRecipientRejected, resp.ErrorCode, resp.Message)
	default:
		return fmt.Errorf("%w: postmark %d %s", ErrFailedToSendEmail, resp.ErrorCode, resp.Message)
	}
}
