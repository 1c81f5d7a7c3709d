// Package httpapi exposes roseline's catalogue over HTTP: read-only VN/hook
// views for anyone, JWT-protected mutating endpoints for admins, and a
// Prometheus /metrics endpoint, grounded on the teacher's chi-router
// httpapi.Server.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/doumanash/roseline/internal/executor"
	"github.com/doumanash/roseline/internal/metrics"
)

// Server holds the dependencies every handler needs.
type Server struct {
	Exec *executor.Executor
	M    *metrics.Registry
	JWT  JWTCfg
	Log  zerolog.Logger
}

// Routes builds the full router: unauthenticated reads, JWT-guarded writes,
// health and metrics endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/metrics", s.metricsHandler)

	r.Get("/vns/{id}", s.getVn)
	r.Get("/vns", s.searchVns)
	r.Get("/vns/{id}/hooks", s.getHooks)
	r.Get("/stats", s.stats)

	r.Group(func(r chi.Router) {
		r.Use(RequireJWT(s.JWT))
		r.Post("/hooks", s.setHook)
		r.Post("/hooks/delete", s.deleteHook)
		r.Post("/vns/delete", s.deleteVn)
	})

	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if s.M == nil {
		http.Error(w, "metrics not configured", http.StatusServiceUnavailable)
		return
	}
	s.M.Handler().ServeHTTP(w, r)
}
