// Package server is the HTTP boundary: one generation route, a
// preflight answer, and a read-only debug surface. Every response body
// it writes is JSON, including errors.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/SteveDakota/xfory/internal/pitch"
)

// Options configures the HTTP boundary.
type Options struct {
	Addr            string
	AllowedOrigin   string // CORS origin, "*" by default
	MaxConns        int    // accepted-connection cap, 0 = unlimited
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Read-only facts surfaced on /debug.
	Version   string
	Provider  string // empty means no backend is configured
	Model     string
	StoreKind string
	Window    time.Duration
	Limit     int
}

// Server serves pitch generations over HTTP.
type Server struct {
	opts   Options
	svc    *pitch.Service
	logger *zap.Logger

	mu        sync.Mutex
	boundAddr string
}

// New creates a Server around a pitch service.
func New(svc *pitch.Service, opts Options, logger *zap.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8787"
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		opts:   opts,
		svc:    svc,
		logger: logger,
	}
}

// Handler returns the full route tree with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handlePitch)
	mux.HandleFunc("/debug", s.handleDebug)
	return s.withMiddleware(mux)
}

// Run listens and serves until ctx is cancelled, then drains within the
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	if s.opts.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConns)
	}

	s.mu.Lock()
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		IdleTimeout:       90 * time.Second,
	}

	s.logger.Info("server listening",
		zap.String("addr", s.Addr()),
		zap.Int("max_conns", s.opts.MaxConns))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.logger.Info("server draining")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Addr returns the bound listen address once Run has opened it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}
