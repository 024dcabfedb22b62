package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Sales-Forecast-Backend/internal/api/middleware"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/config"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
)

// Services groups the services the router exposes.
type Services struct {
	System    *service.SystemService
	Sessions  *service.SessionService
	Dashboard *service.DashboardService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svcs Services, cfg *config.Config, m *metrics.Metrics, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger, m))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svcs.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/sessions", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(svcs.Sessions, svcs.Dashboard, cfg.Upload.MaxBytes)
			r.Post("/", sessionHandler.CreateSession)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)
				r.Post("/mapping", sessionHandler.ApplyMapping)
				r.Get("/dashboard", sessionHandler.Dashboard)
				r.Post("/forecast", sessionHandler.RunForecast)
				r.Get("/forecast", sessionHandler.GetForecast)
				r.Get("/products", sessionHandler.Products)
				r.Get("/chart", sessionHandler.Chart)
			})
		})
	})

	return r
}
