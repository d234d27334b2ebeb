// Package server exposes the poller's state and controls over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/logging"
	"github.com/janekbaraniewski/glmusage/internal/metrics"
	"github.com/janekbaraniewski/glmusage/internal/providers/zai"
)

// Poller is the subset of the polling core the server drives.
type Poller interface {
	Poll(ctx context.Context) error
	RecordActivity()
	Running() bool
	Interval() time.Duration
	Snapshot() (core.UsageSnapshot, bool)
	NextResetTime() (time.Time, bool)
	Recent(window time.Duration) []core.HistoryEntry
	ClearHistory(ctx context.Context) error
}

// Server is also a Display: it remembers the last pushed error so clients
// can tell a stale snapshot from a fresh one.
type Server struct {
	poller Poller
	window time.Duration
	log    *zap.Logger

	mu          sync.Mutex
	lastError   string
	lastErrorAt time.Time
	updatedAt   time.Time
}

func New(p Poller, window time.Duration, log *zap.Logger) *Server {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Server{poller: p, window: window, log: logging.OrNop(log)}
}

func (s *Server) OnUpdate(core.UsageSnapshot, []core.HistoryEntry, *time.Time) {
	s.mu.Lock()
	s.lastError = ""
	s.lastErrorAt = time.Time{}
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *Server) OnError(message string) {
	s.mu.Lock()
	s.lastError = message
	s.lastErrorAt = time.Now()
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/usage", s.handleUsage)
	r.Post("/api/refresh", s.handleRefresh)
	r.Post("/api/activity", s.handleActivity)
	r.Delete("/api/history", s.handleClearHistory)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * zai.DefaultRequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

type usageResponse struct {
	Snapshot        *core.UsageSnapshot `json:"snapshot"`
	History         []core.HistoryEntry `json:"history"`
	NextReset       *time.Time          `json:"next_reset,omitempty"`
	Running         bool                `json:"running"`
	IntervalSeconds float64             `json:"interval_seconds"`
	UpdatedAt       *time.Time          `json:"updated_at,omitempty"`
	LastError       string              `json:"last_error,omitempty"`
	LastErrorAt     *time.Time          `json:"last_error_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) usage() usageResponse {
	resp := usageResponse{
		History:         s.poller.Recent(s.window),
		Running:         s.poller.Running(),
		IntervalSeconds: s.poller.Interval().Seconds(),
	}
	if resp.History == nil {
		resp.History = []core.HistoryEntry{}
	}
	if snap, ok := s.poller.Snapshot(); ok {
		resp.Snapshot = &snap
	}
	if reset, ok := s.poller.NextResetTime(); ok {
		resp.NextReset = &reset
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		resp.UpdatedAt = &t
	}
	if s.lastError != "" {
		t := s.lastErrorAt
		resp.LastError = s.lastError
		resp.LastErrorAt = &t
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "running": s.poller.Running()})
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.usage())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.poller.RecordActivity()
	if err := s.poller.Poll(r.Context()); err != nil {
		status := http.StatusBadGateway
		if zai.IsAuth(err) {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(zai.Classify(err))})
		return
	}
	writeJSON(w, http.StatusOK, s.usage())
}

func (s *Server) handleActivity(w http.ResponseWriter, _ *http.Request) {
	s.poller.RecordActivity()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.poller.ClearHistory(r.Context()); err != nil {
		s.log.Error("clearing history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "store"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
