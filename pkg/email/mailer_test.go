package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agrohub/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Test Subject",
		BodyHTML: "<p>Test body</p>",
		Tag:      "test",
	}

	tests := []struct {
		name   string
		modify func(p *email.SendEmailParams)
		errMsg string
	}{
		{"valid params", func(*email.SendEmailParams) {}, ""},
		{"valid without tag", func(p *email.SendEmailParams) { p.Tag = "" }, ""},
		{"empty SendTo", func(p *email.SendEmailParams) { p.SendTo = "" }, "SendTo is required"},
		{"whitespace SendTo", func(p *email.SendEmailParams) { p.SendTo = "   " }, "SendTo is required"},
		{"invalid address", func(p *email.SendEmailParams) { p.SendTo = "invalid-email" }, "SendTo must be a valid email address"},
		{"missing domain", func(p *email.SendEmailParams) { p.SendTo = "user@" }, "SendTo must be a valid email address"},
		{"missing local part", func(p *email.SendEmailParams) { p.SendTo = "@example.com" }, "SendTo must be a valid email address"},
		{"empty Subject", func(p *email.SendEmailParams) { p.Subject = " " }, "Subject is required"},
		{"empty BodyHTML", func(p *email.SendEmailParams) { p.BodyHTML = "" }, "BodyHTML is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tt.modify(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "out")
	sender := email.NewDevSender(root)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "buyer@example.com",
		Subject:  "Order Confirmed",
		BodyHTML: "<p>Your order #A-1 has been confirmed.</p>",
		Tag:      "order_confirmation",
	})
	require.NoError(t, err)

	days, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, days, 1)
	dir := filepath.Join(root, days[0].Name())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFile, jsonFile string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFile = e.Name()
		case ".json":
			jsonFile = e.Name()
		}
	}
	assert.Contains(t, htmlFile, "order_confirmation")

	body, err := os.ReadFile(filepath.Join(dir, htmlFile))
	require.NoError(t, err)
	assert.Equal(t, "<p>Your order #A-1 has been confirmed.</p>", string(body))

	raw, err := os.ReadFile(filepath.Join(dir, jsonFile))
	require.NoError(t, err)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "buyer@example.com", meta["send_to"])
	assert.Equal(t, "Order Confirmed", meta["subject"])
	assert.Equal(t, htmlFile, meta["body_file"])

	t.Run("invalid params write nothing", func(t *testing.T) {
		dir := t.TempDir()
		err := email.NewDevSender(dir).SendEmail(context.Background(), email.SendEmailParams{SendTo: "nope"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	dev, err := email.NewFromConfig(email.Config{DevOutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, dev)

	_, err = email.NewFromConfig(email.Config{PostmarkServerToken: "tok", SenderEmail: "bad"})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
	assert.True(t, strings.Contains(err.Error(), "SenderEmail"))
}
