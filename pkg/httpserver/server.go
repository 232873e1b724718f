package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/vemx1/vemx1/pkg/logger"
)

// Server wraps http.Server with graceful shutdown and logging.
type Server struct {
	cfg        Config
	log        *slog.Logger
	listener   net.Listener
	onStart    []func(context.Context, net.Addr)
	onShutdown []func(context.Context) error

	once sync.Once
	mu   sync.Mutex
	srv  *http.Server
}

// New returns a Server for cfg.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg: cfg.withDefaults(),
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("httpserver"))
	return s
}

// Run serves h and blocks until ctx is cancelled, SIGINT or SIGTERM is
// received, or Shutdown is called. Listen failures match ErrStart.
func (s *Server) Run(ctx context.Context, h http.Handler) error {
	if h == nil {
		h = http.NotFoundHandler()
	}

	srv, err := s.prepare(ctx, h)
	if err != nil {
		return err
	}

	ln := s.listener
	if ln == nil {
		if ln, err = net.Listen("tcp", s.cfg.Addr); err != nil {
			return errors.Join(ErrStart, err)
		}
	}

	s.log.InfoContext(ctx, "http server started", slog.String("addr", ln.Addr().String()))
	for _, fn := range s.onStart {
		fn(ctx, ln.Addr())
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	var shutdownErr error
	select {
	case <-ctx.Done():
		shutdownErr = s.Shutdown(context.WithoutCancel(ctx))
	case got := <-sig:
		s.log.InfoContext(ctx, "shutdown signal received", slog.String("signal", got.String()))
		shutdownErr = s.Shutdown(context.WithoutCancel(ctx))
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	}

	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err, shutdownErr)
	}
	return shutdownErr
}

func (s *Server) prepare(ctx context.Context, h http.Handler) (*http.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil, errors.Join(ErrStart, ErrAlreadyRunning)
	}
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	return s.srv, nil
}

// Shutdown drains in-flight requests and then runs the OnShutdown hooks, all
// within Config.ShutdownTimeout. Only the first call does any work.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.ErrorContext(ctx, "failed to drain requests", logger.Error(err))
			errs = append(errs, err)
		}
		for _, fn := range s.onShutdown {
			if err := fn(ctx); err != nil {
				s.log.ErrorContext(ctx, "shutdown hook failed", logger.Error(err))
				errs = append(errs, err)
			}
		}
		s.log.InfoContext(ctx, "http server stopped")
	})

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrShutdown}, errs...)...)
	}
	return nil
}
