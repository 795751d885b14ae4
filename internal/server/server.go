// Package server exposes the current call status and call control over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/history"
	"github.com/theirongolddev/telwatch/internal/logging"
	"github.com/theirongolddev/telwatch/internal/status"
	"github.com/theirongolddev/telwatch/internal/telecom"
)

// StatusSource provides the latest status snapshot.
type StatusSource interface {
	Latest() (status.CallStatus, time.Time)
}

// Controller places and ends calls on the device.
type Controller interface {
	Dial(ctx context.Context, number string) error
	Answer(ctx context.Context) error
	HangUp(ctx context.Context) error
}

// CallLister returns recent finished calls.
type CallLister interface {
	Recent(ctx context.Context, limit int) ([]history.Call, error)
}

// Server serves the telwatch HTTP API
type Server struct {
	status StatusSource
	ctrl   Controller
	calls  CallLister
	region string
	addr   string
	logger *zap.Logger

	shutdownTimeout time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables GET /api/v1/calls.
func WithHistory(calls CallLister) Option {
	return func(s *Server) { s.calls = calls }
}

// WithRegion sets the region used to format caller numbers.
func WithRegion(region string) Option {
	return func(s *Server) {
		if region != "" {
			s.region = region
		}
	}
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// New creates a server over src and ctrl
func New(src StatusSource, ctrl Controller, opts ...Option) *Server {
	s := &Server{
		status:          src,
		ctrl:            ctrl,
		region:          telecom.DefaultRegion,
		addr:            ":8080",
		logger:          zap.NewNop(),
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return withRequestLog(s.logger, mux)
}

// Run listens on the configured address until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	<-errCh
	return nil
}
