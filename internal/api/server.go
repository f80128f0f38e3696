// Package api exposes the HTTP observer surface for the search service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hmansoor/regprobe/internal/config"
	"github.com/hmansoor/regprobe/internal/daterange"
	"github.com/hmansoor/regprobe/internal/events/sinks"
	"github.com/hmansoor/regprobe/internal/metrics"
	"github.com/hmansoor/regprobe/internal/search"
)

// Server wires HTTP handlers to the search coordinator and the console
// event buffer.
type Server struct {
	router      chi.Router
	coordinator *search.Coordinator
	console     *sinks.MemorySink
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	coordinator *search.Coordinator,
	console *sinks.MemorySink,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		coordinator: coordinator,
		console:     console,
		cfg:         cfg,
		logger:      logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/searches", func(r chi.Router) {
			r.Post("/", s.startSearch)
			r.Route("/current", func(r chi.Router) {
				r.Get("/", s.currentSearch)
				r.Post("/cancel", s.cancelSearch)
			})
		})
		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.listEvents)
			r.Delete("/", s.clearEvents)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type startSearchRequest struct {
	Identifier string `json:"identifier"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Workers    *int   `json:"workers"`
}

type startSearchResponse struct {
	RunID      string `json:"run_id"`
	Identifier string `json:"identifier"`
	Range      string `json:"range"`
	Workers    int    `json:"workers"`
	TotalDays  int    `json:"total_days"`
}

func (s *Server) startSearch(w http.ResponseWriter, r *http.Request) {
	var req startSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	identifier := strings.ToUpper(strings.TrimSpace(req.Identifier))
	span, err := daterange.Parse(req.StartDate, req.EndDate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workers := s.cfg.Search.DefaultWorkers
	if req.Workers != nil {
		workers = *req.Workers
	}
	if workers > s.cfg.Search.MaxWorkers {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("workers must be <= %d", s.cfg.Search.MaxWorkers))
		return
	}

	run, err := s.coordinator.Start(identifier, span, workers)
	switch {
	case search.IsConfigError(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, search.ErrAlreadyRunning):
		s.writeError(w, http.StatusConflict, "a search is already running")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, startSearchResponse{
		RunID:      run.ID(),
		Identifier: identifier,
		Range:      span.String(),
		Workers:    workers,
		TotalDays:  span.Days(),
	})
}

type searchStateResponse struct {
	RunID         string  `json:"run_id"`
	Identifier    string  `json:"identifier"`
	Range         string  `json:"range"`
	Workers       int     `json:"workers"`
	Started       string  `json:"started"`
	Running       bool    `json:"running"`
	StopRequested bool    `json:"stop_requested"`
	Checked       int64   `json:"checked"`
	Found         int64   `json:"found"`
	Total         int64   `json:"total"`
	Progress      float64 `json:"progress"`
	Result        string  `json:"result,omitempty"`
}

func (s *Server) currentSearch(w http.ResponseWriter, _ *http.Request) {
	state, err := s.coordinator.Snapshot()
	if errors.Is(err, search.ErrNoRun) {
		s.writeError(w, http.StatusNotFound, "no search has been started")
		return
	}
	s.writeJSON(w, http.StatusOK, toStateResponse(state))
}

func (s *Server) cancelSearch(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.coordinator.Snapshot(); errors.Is(err, search.ErrNoRun) {
		s.writeError(w, http.StatusNotFound, "no search has been started")
		return
	}
	s.coordinator.RequestStop()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "stop_requested"})
}

type eventResponse struct {
	RunID   string `json:"run_id"`
	TS      string `json:"ts"`
	Level   string `json:"level"`
	Worker  int    `json:"worker"`
	Message string `json:"message"`
}

func (s *Server) listEvents(w http.ResponseWriter, _ *http.Request) {
	entries := s.console.Events()
	out := make([]eventResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, eventResponse{
			RunID:   e.RunID,
			TS:      e.TS.Format(time.RFC3339Nano),
			Level:   string(e.Level),
			Worker:  e.Worker,
			Message: e.Message,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (s *Server) clearEvents(w http.ResponseWriter, _ *http.Request) {
	s.console.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func toStateResponse(state search.State) searchStateResponse {
	return searchStateResponse{
		RunID:         state.RunID,
		Identifier:    state.Identifier,
		Range:         state.Range.String(),
		Workers:       state.Workers,
		Started:       state.Started.Format(time.RFC3339Nano),
		Running:       state.Running,
		StopRequested: state.StopRequested,
		Checked:       state.Checked,
		Found:         state.Found,
		Total:         state.Total,
		Progress:      state.Progress(),
		Result:        string(state.Result),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
