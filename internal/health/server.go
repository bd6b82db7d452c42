// Package health exposes the bridge's HTTP monitoring endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/host"
	"github.com/vietddude/markerbridge/internal/infra/storage"
)

// StateProvider reports the current host connection state.
type StateProvider interface {
	State() host.State
}

// Report is the /health response body.
type Report struct {
	Status     string            `json:"status"`
	Connection string            `json:"connection"`
	LastImport *domain.ImportRun `json:"last_import,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	conn    StateProvider
	journal storage.JournalRepository
	server  *http.Server
}

// NewServer creates a new health server. journal may be nil.
func NewServer(conn StateProvider, journal storage.JournalRepository, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		conn:    conn,
		journal: journal,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.conn.State()

	report := Report{
		Connection: state.String(),
		CheckedAt:  time.Now().UTC(),
	}
	switch state {
	case host.StateConnected:
		report.Status = "healthy"
	case host.StateFailed:
		report.Status = "critical"
	default:
		report.Status = "degraded"
	}

	if s.journal != nil {
		run, err := s.journal.LatestRun(r.Context(), "")
		if err == nil {
			report.LastImport = run
		} else if !errors.Is(err, storage.ErrRunNotFound) {
			report.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if report.Status == "critical" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(report)
}
