package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tracker-core/internal/infrastructure/metrics"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus exposition
	r.Handle("/metrics", metrics.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		// Device uploads are PUT only; anything else gets a JSON 405.
		r.HandleFunc("/upload", s.handleUpload)

		r.Route("/fixes", func(r chi.Router) {
			r.Get("/", s.handleListFixes)
			r.Get("/day/{date}", s.handleDayFixes)
			r.Get("/{id}", s.handleGetFix)
		})

		r.Get("/export/{date}.gpx", s.handleExportGPX)

		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)
			r.Post("/", s.handleCreateZone)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetZone)
				r.Put("/", s.handleUpdateZone)
				r.Delete("/", s.handleDeleteZone)
			})
		})

		r.Route("/visits", func(r chi.Router) {
			r.Get("/compare", s.handleCompareVisits)
			r.Get("/{date}", s.handleDayVisits)
			r.Post("/{date}/publish", s.handlePublishVisits)
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the live feed route under /api/v1, from websocket.path.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return "/" + strings.TrimPrefix(s.wsCfg.Path, "/")
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
