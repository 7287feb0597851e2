package email

// Config holds email delivery settings. Without Postmark tokens the dev
// sender writes messages to DevOutputDir instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@agrohub.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@agrohub.local"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// NewFromConfig returns the Postmark sender when a server token is configured
// and the dev file sender otherwise.
func NewFromConfig(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevOutputDir), nil
	}
	return NewPostmarkClient(cfg)
}
