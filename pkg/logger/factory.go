package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Environment names understood by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Option configures New.
type Option func(*config)

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// WithEnvironment picks defaults for a deployment: text at debug level in
// development, JSON at info level anywhere else. The service and env names
// are attached to every record.
func WithEnvironment(env, service string) Option {
	return func(c *config) {
		switch strings.ToLower(env) {
		case EnvProduction, "prod":
			env, c.level, c.format = EnvProduction, slog.LevelInfo, FormatJSON
		case EnvStaging, "stage":
			env, c.level, c.format = EnvStaging, slog.LevelInfo, FormatJSON
		default:
			env, c.level, c.format = EnvDevelopment, slog.LevelDebug, FormatText
		}
		if service != "" {
			c.attrs = append(c.attrs, slog.String("service", service))
		}
		c.attrs = append(c.attrs, slog.String("env", env))
	}
}

// WithLevelName overrides the level with a name such as "debug" or "WARN".
// An empty name keeps the current level. Unknown names panic, so a typo in
// LOG_LEVEL stops startup instead of silently logging at the wrong level.
func WithLevelName(name string) Option {
	return func(c *config) {
		if name == "" {
			return
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(name)); err != nil {
			panic(fmt.Errorf("invalid log level %q: %w", name, err))
		}
		c.level = lvl
	}
}

// WithFormat panics for anything but FormatJSON or FormatText.
func WithFormat(f Format) Option {
	return func(c *config) {
		if f != FormatJSON && f != FormatText {
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
		c.format = f
	}
}

// WithOutput ignores a nil writer.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		c.extractors = append(c.extractors, extractors...)
	}
}

// New builds a logger. The job id extractor is always registered, so records
// logged from inside a job handler carry job_id.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	extractors := append([]ContextExtractor{jobIDExtractor}, cfg.extractors...)
	return slog.New(NewContextHandler(handler, extractors...))
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
