// Package api exposes the control plane's read-only query surface over
// HTTP. Every route is a read; mutations happen only through the app
// service invoked by the owning process.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"goprove/app"
	"goprove/domain/core"
	"goprove/domain/promotion"
	"goprove/internal"
	"goprove/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the read-only query API.
type Server struct {
	controlPlane *app.ControlPlane
	ledger       ports.LedgerReader
	logger       *internal.Logger
	router       chi.Router
}

// NewServer builds the router.
func NewServer(controlPlane *app.ControlPlane, ledger ports.LedgerReader, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{controlPlane: controlPlane, ledger: ledger, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/candidates", s.handleListCandidates)
	r.Get("/candidates/{candidateID}/events", s.handleListEvents)
	r.Get("/candidates/{candidateID}/trace", s.handleTrace)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	filters := ports.CandidateFilters{}
	if v := r.URL.Query().Get("status"); v != "" {
		status := promotion.Status(v)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown status "+v)
			return
		}
		filters.Status = &status
	}
	if v := r.URL.Query().Get("run_key"); v != "" {
		key := core.RunKey(v)
		filters.RunKey = &key
	}
	if v := r.URL.Query().Get("dataset_id"); v != "" {
		id := core.DatasetID(v)
		filters.DatasetID = &id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filters.Offset = n
		}
	}

	candidates, err := s.controlPlane.ListCandidates(r.Context(), filters)
	if err != nil {
		s.logger.Error("list candidates failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list candidates")
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	candidateID := core.CandidateID(chi.URLParam(r, "candidateID"))
	events, err := s.ledger.ListEvents(r.Context(), candidateID)
	if err != nil {
		s.logger.Error("list events failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	candidateID := core.CandidateID(chi.URLParam(r, "candidateID"))
	trace, err := s.controlPlane.TraceAcceptance(r.Context(), candidateID)
	if err != nil {
		switch {
		case core.IsNotFoundError(err):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrNotAccepted):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, core.ErrBrokenChain):
			// Corruption signal: the promotion gate should make this
			// unreachable.
			s.logger.Error("broken evidentiary chain for candidate %s: %v", candidateID, err)
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			s.logger.Error("trace failed: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to trace acceptance")
		}
		return
	}
	writeJSON(w, http.StatusOK, trace)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
