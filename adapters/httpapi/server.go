package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gocortex/domain/anomaly"
	"gocortex/domain/core"
	"gocortex/internal"
	"gocortex/ports"
)

// Server is the read-only JSON surface over stored inference results.
// It never writes: ingestion happens through pipeline sinks and the
// ingest CLI, keeping this surface a pure consumer per the sink contract.
type Server struct {
	router *chi.Mux
	repo   ports.ResultRepository
	logger *internal.Logger
}

// NewServer creates the read API over a result repository
func NewServer(repo ports.ResultRepository) *Server {
	s := &Server{
		router: chi.NewRouter(),
		repo:   repo,
		logger: internal.DefaultLogger.WithComponent("httpapi"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/streams/{streamID}", func(r chi.Router) {
		r.Get("/results", s.handleListResults)
		r.Get("/latest", s.handleLatestResult)
		r.Get("/summary", s.handleAnomalySummary)
	})

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server on the given port
func (s *Server) ListenAndServe(port string) error {
	s.logger.Info("read API listening on :%s", port)
	return http.ListenAndServe(":"+port, s.router)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	streamID := core.StreamID(chi.URLParam(r, "streamID"))

	filters := ports.ResultFilters{
		Limit:  queryInt(r, "limit", 100),
		Offset: queryInt(r, "offset", 0),
	}

	results, err := s.repo.ListByStream(r.Context(), streamID, filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if results == nil {
		results = []ports.Result{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stream_id": streamID,
		"results":   results,
	})
}

func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	streamID := core.StreamID(chi.URLParam(r, "streamID"))

	result, err := s.repo.Latest(r.Context(), streamID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAnomalySummary(w http.ResponseWriter, r *http.Request) {
	streamID := core.StreamID(chi.URLParam(r, "streamID"))

	scores, err := s.repo.Scores(r.Context(), streamID, queryInt(r, "limit", 1000))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(scores) == 0 {
		s.writeError(w, core.ErrResultNotFound)
		return
	}

	summary, err := anomaly.Summarize(scores)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stream_id": streamID,
		"anomaly":   summary,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if core.IsNotFoundError(err) {
		status = http.StatusNotFound
	}
	s.logger.Warn("request failed: %v", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return fallback
}
