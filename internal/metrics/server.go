package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server exposes the collector's registry over HTTP for pull-based scraping.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates the metrics exposition server on the given port.
func NewServer(port int, collector *Collector, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the port and serves in the background. A bind failure is
// returned so the caller can log it; the scraping workload continues
// without metrics exposition.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics server on %s: %w", s.srv.Addr, err)
	}
	s.listener = listener

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("metrics server started")

	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	return nil
}

// Addr returns the bound address, or empty if the server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down. Safe to call twice and safe when the server
// was never started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	s.listener = nil

	return s.srv.Shutdown(ctx)
}
