// Package statusapi implements the optional, read-only operator status
// surface: /healthz, /pipelines, /schedules. It generalizes the teacher's
// internal/api/server.go chi router (middleware.Logger + middleware.
// Recoverer + cors.Handler, then a routed tree of JSON endpoints) from a
// mutating workflow-CRUD API to a read-only window onto the pipeline
// store and scheduler, deliberately with no write verbs — the MCP tool
// facade is the only mutation path per spec.md.
package statusapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/store"
)

// Server exposes the status endpoints over the stores the MCP tool
// facade itself writes to.
type Server struct {
	Pipelines store.PipelineRepository
	Schedules store.ScheduleRepository
	StartedAt time.Time
}

func New(pipelines store.PipelineRepository, schedules store.ScheduleRepository) *Server {
	return &Server{Pipelines: pipelines, Schedules: schedules, StartedAt: time.Now()}
}

// Handler builds the chi router, mirroring the teacher's middleware
// ordering (logger, recoverer, then a permissive CORS policy since this
// is a local operator surface, not a multi-tenant API).
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/pipelines", s.handlePipelines)
	r.Get("/schedules", s.handleSchedules)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.StartedAt).String(),
	})
}

func (s *Server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var out []pipeline.Meta
	for _, scope := range []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal} {
		metas, err := s.Pipelines.List(ctx, scope)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, metas...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": out, "count": len(out)})
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var out []store.Schedule
	for _, scope := range []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal} {
		scheds, err := s.Schedules.List(ctx, scope)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, scheds...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": out, "count": len(out)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
