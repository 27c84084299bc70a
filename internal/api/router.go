// Package api provides the HTTP API for CleanRoute.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/api/handler"
	"github.com/cleanroute/cleanroute/internal/api/middleware"
	"github.com/cleanroute/cleanroute/internal/exposure"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
	"github.com/cleanroute/cleanroute/internal/routing"
	"github.com/cleanroute/cleanroute/internal/weather"
)

// RouterConfig holds the services the API serves.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics

	RoutingService *routing.Service
	Scorer         *exposure.Scorer
	GridService    *airgrid.Service
	WeatherService *weather.Service
	Registry       *resilience.Registry
}

// NewRouter creates the chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware, ordered: identity, tracing and metrics first so
	// they observe everything downstream.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	routeHandler := handler.NewRouteHandler(cfg.RoutingService, cfg.Scorer, cfg.Logger)
	airHandler := handler.NewAirHandler(cfg.GridService, cfg.Logger)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService, cfg.Logger)
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Route computation fans out to the routing and air providers.
		r.Route("/routes", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/optimal", routeHandler.GetOptimalRoute)
			r.With(middleware.RequireJSON).Post("/score", routeHandler.ScoreRoute)
		})

		r.Route("/air", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", airHandler.GetCurrent)
			r.Get("/nearby", airHandler.GetNearby)
			r.Get("/forecast", airHandler.GetForecast)
		})

		r.Route("/weather", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/current", weatherHandler.GetCurrent)
		})

		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})
	})

	return r
}
