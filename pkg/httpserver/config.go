package httpserver

import (
	"fmt"
	"time"
)

// Config is the operator API listener. Zero durations fall back to the
// defaults below, so a partially filled Config is usable in tests.
type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8081"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"` // in-flight requests get this long after cancellation
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8081"
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = 5 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

func (c Config) validate() error {
	for name, d := range map[string]time.Duration{
		"read":  c.ReadTimeout,
		"write": c.WriteTimeout,
		"idle":  c.IdleTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%w: negative %s timeout %s", ErrInvalidConfig, name, d)
		}
	}
	return nil
}
