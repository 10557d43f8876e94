// Package server owns the HTTP server lifecycle: listen, serve, and
// graceful shutdown of the server plus the resources it depends on.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default HTTP server configuration. WriteTimeout
// leaves room for a retried model call plus a vision call.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server wraps the HTTP server and the resources closed with it.
type Server struct {
	config  Config
	http    *http.Server
	logger  log.Interface
	closers []io.Closer
}

// NewServer creates a new HTTP server for handler. closers are closed in
// order after the listener stops.
func NewServer(handler http.Handler, config Config, logger log.Interface, closers ...io.Closer) *Server {
	if logger == nil {
		logger = log.Log
	}
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:           handler,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}

	return &Server{
		config:  config,
		http:    httpServer,
		logger:  logger,
		closers: closers,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Start starts the HTTP server and blocks until it stops. A server stopped
// through Shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }
	s.logger.WithField("addr", ln.Addr().String()).Info("starting HTTP server")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Run serves on ln until ctx is cancelled, then shuts down within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully shuts down the server and closes its resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("resource close error: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
