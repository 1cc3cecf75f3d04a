// Package main provides the entrypoint for the FarmCast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/farmcast/farmcast/internal/advisory"
	"github.com/farmcast/farmcast/internal/api"
	"github.com/farmcast/farmcast/internal/api/middleware"
	"github.com/farmcast/farmcast/internal/device"
	"github.com/farmcast/farmcast/internal/geocode/nominatim"
	"github.com/farmcast/farmcast/internal/telemetry"
	"github.com/farmcast/farmcast/internal/weather"
	"github.com/farmcast/farmcast/internal/weather/openmeteo"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "farmcast-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting FarmCast API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		log.Fatal().Msg("GOOGLE_CLOUD_PROJECT must be set")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to Firestore
	var fsOpts []option.ClientOption
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		fsOpts = append(fsOpts, option.WithCredentialsFile(credsFile))
	}

	fsClient, err := firestore.NewClient(ctx, projectID, fsOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Firestore")
	}
	defer fsClient.Close()
	log.Info().
		Str("project", projectID).
		Msg("Firestore connected")

	// Initialize device registry and service
	deviceRepo := device.NewFirestoreRepository(fsClient, device.DefaultCollection)
	deviceService := device.NewService(deviceRepo, log)
	log.Info().Msg("device service initialized")

	// Initialize weather providers and service
	weatherProvider := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL: os.Getenv("OPENMETEO_BASE_URL"),
		Logger:  log,
	})

	geocoder := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL: os.Getenv("NOMINATIM_BASE_URL"),
		Logger:  log,
	})

	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: weatherProvider,
		Geocoder: geocoder,
		Logger:   log,
	})
	log.Info().Msg("weather service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		DeviceService:      deviceService,
		WeatherService:     weatherService,
		AdvisoryThresholds: advisory.DefaultThresholds(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
