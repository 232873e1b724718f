package httpserver

import (
	"context"
	"log/slog"
	"net"
)

// Option customizes a Server beyond its Config.
type Option func(*Server)

// WithLogger supplies the server logger. Logs are discarded when unset.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithListener serves on an already bound listener instead of Config.Addr.
func WithListener(l net.Listener) Option {
	return func(s *Server) { s.listener = l }
}

// OnStart registers a callback invoked once the listener is bound.
func OnStart(fn func(ctx context.Context, addr net.Addr)) Option {
	return func(s *Server) {
		if fn != nil {
			s.onStart = append(s.onStart, fn)
		}
	}
}

// OnShutdown registers a callback invoked after in-flight requests drained,
// sharing the shutdown deadline. Hooks run in registration order; their
// errors are logged and returned joined with ErrShutdown.
func OnShutdown(fn func(ctx context.Context) error) Option {
	return func(s *Server) {
		if fn != nil {
			s.onShutdown = append(s.onShutdown, fn)
		}
	}
}
