package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// DevSender is the local stand-in for Postmark. Each message becomes an
// .html file with the body and a .json file with the envelope, grouped in a
// directory per day.
type DevSender struct {
	dir string
	seq atomic.Uint64
	now func() time.Time
}

var _ EmailSender = (*DevSender)(nil)

// NewDevSender writes messages below dir, creating it on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now}
}

type devEnvelope struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
	Body      string `json:"body_file"`
}

func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	now := d.now()
	day := filepath.Join(d.dir, now.Format("2006-01-02"))
	if err := os.MkdirAll(day, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	// The sequence number keeps a burst of alerts in the same second apart.
	base := fmt.Sprintf("%s_%06d_%s_%s", now.Format("150405"), d.seq.Add(1), slugify(label), slugify(params.SendTo))

	if err := os.WriteFile(filepath.Join(day, base+".html"), []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}

	env, err := json.MarshalIndent(devEnvelope{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
		Body:      base + ".html",
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(day, base+".json"), env, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

func slugify(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ToLower(s), "_")
	s = strings.Trim(s, "_")
	if len(s) > 48 {
		s = s[:48]
	}
	if s == "" {
		return "message"
	}
	return s
}
