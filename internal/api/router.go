// Package api provides the HTTP API for FarmCast.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/farmcast/farmcast/internal/advisory"
	"github.com/farmcast/farmcast/internal/api/handler"
	"github.com/farmcast/farmcast/internal/api/middleware"
	"github.com/farmcast/farmcast/internal/device"
	"github.com/farmcast/farmcast/internal/weather"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	DeviceService      *device.Service
	WeatherService     *weather.Service
	AdvisoryThresholds advisory.Thresholds
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "farmcast-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime)
	deviceHandler := handler.NewDeviceHandler(cfg.DeviceService)
	weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)
	advisoryHandler := handler.NewAdvisoryHandler(cfg.AdvisoryThresholds)

	// Rate limit tiers
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Device registration
		r.Route("/devices", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/", deviceHandler.Register)
			r.Put("/location", deviceHandler.UpdateLocation)
		})

		// Weather - fans out to two upstream providers, strict rate limiting
		r.With(expensiveRateLimit).Get("/weather", weatherHandler.GetWeather)

		// Advisory - pure computation over the posted inputs
		r.With(standardRateLimit).Post("/advisory", advisoryHandler.Generate)
	})

	return r
}
