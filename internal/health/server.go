package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// handler serves the health endpoints from a shared Checker. Every /health
// request runs all checks fresh; /live never runs checks.
type handler struct {
	checker *Checker
	logger  zerolog.Logger
}

// Handler returns the HTTP handler for the health, readiness, and liveness
// endpoints. Exposed for tests and for embedding into an existing router.
func Handler(checker *Checker, logger zerolog.Logger) http.Handler {
	h := &handler{checker: checker, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Get("/live", h.live)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	report := h.checker.Run()

	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, report)
}

func (h *handler) ready(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"scraper":   h.checker.identity.Name,
	})
}

func (h *handler) live(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode health response")
	}
}

// Server runs the health endpoints on a dedicated port.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates the health check server on the given port.
func NewServer(port int, checker *Checker, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      Handler(checker, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  15 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the port and serves in the background. A bind failure is
// returned for logging; the scraping workload continues without the health
// endpoints.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	listener, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind health server on %s: %w", s.srv.Addr, err)
	}
	s.listener = listener

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("health check server started")

	go func() {
		if err := s.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("health server error")
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
