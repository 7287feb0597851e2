package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the prediction service.
type Client struct {
	endpoint string
	http     *http.Client
	breaker  *CircuitBreaker
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithCircuitBreaker replaces the default breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ClientOption {
	return func(cl *Client) {
		if cb != nil {
			cl.breaker = cb
		}
	}
}

// WithLogger logs breaker transitions. Nil is ignored.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient creates a prediction service client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidInput, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/predictions/yield",
		http:     &http.Client{Timeout: timeout},
		breaker:  NewCircuitBreaker(cfg.FailureThreshold, 0, cfg.RecoveryTimeout),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker.OnStateChange(func(from, to CircuitState) {
		level := slog.LevelInfo
		if to == CircuitOpen {
			level = slog.LevelWarn
		}
		c.logger.Log(context.Background(), level, "prediction circuit changed state",
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	})
	return c, nil
}

type yieldRequest struct {
	CropID string `json:"crop_id"`
}

// GenerateCropYieldPrediction asks the service to compute and store a yield
// prediction for one crop.
func (c *Client) GenerateCropYieldPrediction(ctx context.Context, cropID string) error {
	if strings.TrimSpace(cropID) == "" {
		return ErrInvalidCrop
	}
	if err := c.breaker.Allow(); err != nil {
		return err
	}

	status, err := c.post(ctx, yieldRequest{CropID: cropID})
	// Client errors say nothing about upstream health.
	c.breaker.Done(err == nil || (status >= 400 && status < 500))
	return err
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

func (c *Client) post(ctx context.Context, body any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Join(ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.ReplaceAll(strings.TrimSpace(string(raw)), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
