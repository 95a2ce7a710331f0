// Package api serves the replicator's HTTP surface: liveness, Prometheus
// metrics and a read-only view of unit status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tamzrod/modbus-sync/internal/status"
)

// StatusSource is the read side of status.Board.
type StatusSource interface {
	Get(unit string) (status.Snapshot, bool)
	Units() []string
}

// UnitStatus is the JSON view of one unit.
type UnitStatus struct {
	Unit           string `json:"unit"`
	Health         string `json:"health"`
	HealthCode     uint16 `json:"health_code"`
	LastErrorCode  uint16 `json:"last_error_code"`
	SecondsInError uint16 `json:"seconds_in_error"`
}

func unitStatus(id string, s status.Snapshot) UnitStatus {
	return UnitStatus{
		Unit:           id,
		Health:         status.HealthName(s.Health),
		HealthCode:     s.Health,
		LastErrorCode:  s.LastErrorCode,
		SecondsInError: s.SecondsInError,
	}
}

// Server is the HTTP server.
type Server struct {
	addr    string
	units   StatusSource
	metrics http.Handler
	log     *slog.Logger

	srv *http.Server
}

// NewServer creates a server; metrics may be nil.
func NewServer(addr string, units StatusSource, metrics http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{addr: addr, units: units, metrics: metrics, log: log}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}

	// Root-level routes only; a subrouter answers a method mismatch with 404.
	r.HandleFunc("/api/v1/units", s.handleListUnits).Methods("GET")
	r.HandleFunc("/api/v1/units/{id}", s.handleGetUnit).Methods("GET")

	return r
}

// Start listens in the background.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", "addr", s.addr, "error", err)
		}
	}()
	s.log.Info("http listening", "addr", s.addr)
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	out := []UnitStatus{}
	for _, id := range s.units.Units() {
		if snap, ok := s.units.Get(id); ok {
			out = append(out, unitStatus(id, snap))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, ok := s.units.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "unit not found")
		return
	}
	respondJSON(w, http.StatusOK, unitStatus(id, snap))
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, map[string]string{"error": msg})
}
