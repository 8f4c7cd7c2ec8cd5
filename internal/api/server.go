// Package api serves a running simulation over HTTP. Every endpoint is
// read-only observation; the simulation itself never blocks on a request.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oswinhale/steading/internal/metrics"
	"github.com/oswinhale/steading/internal/sink"
)

// Server exposes the latest snapshot, the stored history, and a live
// websocket feed. It implements sink.Sink so the simulation can treat it
// like any other emission target.
type Server struct {
	RunID string
	Seed  int64
	Hub   *sink.ObserverHub
	Store *sink.SQLiteStore // optional; history endpoint 404s without it

	mu     sync.RWMutex
	latest *metrics.Snapshot

	srv *http.Server
}

// NewServer wires a server around a fresh observer hub.
func NewServer(runID string, seed int64, store *sink.SQLiteStore) *Server {
	return &Server{
		RunID: runID,
		Seed:  seed,
		Hub:   sink.NewObserverHub(),
		Store: store,
	}
}

// WriteSnapshot records the day and fans it out to websocket observers.
func (s *Server) WriteSnapshot(snap metrics.Snapshot) error {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()
	return s.Hub.WriteSnapshot(snap)
}

// Close shuts the listener and disconnects every observer.
func (s *Server) Close() error {
	if s.srv != nil {
		s.srv.Close()
	}
	return s.Hub.Close()
}

// Start begins serving on addr in a goroutine.
func (s *Server) Start(addr string) error {
	historyLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/latest", s.handleLatest)
	mux.HandleFunc("/api/v1/history", RateLimitMiddleware(historyLimiter, s.handleHistory))
	mux.Handle("/ws", s.Hub)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observation server stopped", "error", err)
		}
	}()
	slog.Info("observation server listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	status := map[string]any{
		"run_id":    s.RunID,
		"seed":      s.Seed,
		"observers": s.Hub.Observers(),
	}
	if latest != nil {
		status["day"] = latest.Day
		status["season"] = latest.Season
		status["population"] = latest.Population
	}
	writeJSON(w, status)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest == nil {
		http.Error(w, "no snapshot yet", http.StatusNotFound)
		return
	}
	writeJSON(w, latest)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "run history not stored", http.StatusNotFound)
		return
	}
	rows, err := s.Store.History()
	if err != nil {
		slog.Error("history query failed", "error", err)
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}
