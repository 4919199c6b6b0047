// Package http exposes the session over a JSON API alongside the health,
// readiness and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/app"
	"github.com/couchcryptid/carbon-food-print/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service is the collaborator API the handlers drive. *app.Session implements it.
type Service interface {
	sharedobs.ReadinessChecker
	Catalog() []domain.FoodCatalogEntry
	AddEntry(entry domain.DailyInputEntry) error
	PendingView() []app.PendingItem
	ClearPending()
	CalculateDaily(ctx context.Context) (domain.FootprintResult, error)
	DashboardStats() app.DashboardStats
	Records() []domain.DailyRecord
	SaveProfile(ctx context.Context, name, residence string) error
	Profile() (domain.UserProfile, bool)
}

// Server serves the API and operational endpoints.
type Server struct {
	httpServer *http.Server
	service    Service
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes.
func NewServer(addr string, service Service, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// WriteTimeout covers a whole daily calculation, which geocodes every entry.
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      2 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		service: service,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(service))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/v1/profile", s.handleSaveProfile)
	mux.HandleFunc("GET /api/v1/foods", s.handleListFoods)
	mux.HandleFunc("GET /api/v1/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/v1/entries", s.handleAddEntry)
	mux.HandleFunc("DELETE /api/v1/entries", s.handleClearEntries)
	mux.HandleFunc("POST /api/v1/calculations", s.handleCalculate)
	mux.HandleFunc("GET /api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/v1/records", s.handleRecords)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
