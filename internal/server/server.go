// Package server exposes the read-side HTTP API used by dashboards and
// automation: training summaries, workout history, and spreadsheet export.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftbot/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Get("/summary", s.handleSummary)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleWorkoutDetail)
		r.Get("/prs", s.handleLatestPRs)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/measurements", s.handleMeasurements)
		r.Get("/imports", s.handleImportLogs)
	})
}
