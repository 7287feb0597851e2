package httpserver

import "log/slog"

// Option adjusts a Server after its Config is applied.
type Option func(*Server)

// WithLogger sets the logger for lifecycle messages. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAddr overrides Config.Addr. Tests use it to bind 127.0.0.1:0.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.cfg.Addr = addr
		}
	}
}
