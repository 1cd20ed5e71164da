package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/watchtowerhq/watchtower-api/internal/api/middleware"
	"github.com/watchtowerhq/watchtower-api/internal/service"
)

// RouterDeps carries the services the router's handlers depend on.
type RouterDeps struct {
	CompetitorService   service.CompetitorService
	IntelligenceService service.IntelligenceService
}

// NewRouter builds the application router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace)

	competitorHandler := NewCompetitorHandler(deps.CompetitorService)
	reportHandler := NewReportHandler(deps.IntelligenceService)

	r.Route("/api", func(r chi.Router) {
		// Competitor management
		r.Get("/competitors", competitorHandler.ListCompetitors)
		r.Post("/competitors", competitorHandler.CreateCompetitor)
		r.Get("/competitors/{id}", competitorHandler.GetCompetitor)
		r.Delete("/competitors/{id}", competitorHandler.DeleteCompetitor)

		// Weekly reports
		r.Get("/reports", reportHandler.ListReports)
		r.Post("/reports", reportHandler.RequestReport)
		r.Get("/reports/latest", reportHandler.GetLatestReport)
		r.Get("/reports/{id}", reportHandler.GetReport)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics (cache hit rates, GitHub request outcomes)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
