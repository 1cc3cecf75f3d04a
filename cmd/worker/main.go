// Package main provides the entrypoint for the FarmCast alert dispatch worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/farmcast/farmcast/internal/device"
	"github.com/farmcast/farmcast/internal/push/fcm"
	"github.com/farmcast/farmcast/internal/weather/openmeteo"
	"github.com/farmcast/farmcast/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const defaultDispatchInterval = 30 * time.Minute

func main() {
	const serviceName = "farmcast-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting FarmCast worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		log.Fatal().Msg("GOOGLE_CLOUD_PROJECT must be set")
	}

	credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	interval := defaultDispatchInterval
	if raw := os.Getenv("DISPATCH_INTERVAL_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			log.Fatal().Str("value", raw).Msg("invalid DISPATCH_INTERVAL_MINUTES")
		}
		interval = time.Duration(minutes) * time.Minute
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Firestore
	var fsOpts []option.ClientOption
	if credsFile != "" {
		fsOpts = append(fsOpts, option.WithCredentialsFile(credsFile))
	}

	fsClient, err := firestore.NewClient(ctx, projectID, fsOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Firestore")
	}
	defer fsClient.Close()

	registry := device.NewFirestoreRepository(fsClient, device.DefaultCollection)

	// Initialize the push sender
	sender, err := fcm.NewSender(ctx, fcm.SenderConfig{
		CredentialsFile: credsFile,
		Logger:          log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize FCM sender")
	}

	// Initialize the weather provider
	provider := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL: os.Getenv("OPENMETEO_BASE_URL"),
		Logger:  log,
	})

	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Registry: registry,
		Weather:  provider,
		Sender:   sender,
		Logger:   log,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Optional Pub/Sub trigger subscription alongside the ticker. Cloud
	// Scheduler publishes to the topic; locally the ticker alone suffices.
	if sub := os.Getenv("PUBSUB_SUBSCRIPTION"); sub != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: sub,
			DispatchJob:      job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Pub/Sub handler")
		}
		defer handler.Close()

		go func() {
			log.Info().Str("subscription", sub).Msg("listening for dispatch triggers")
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	}

	// Dispatch loop: one run immediately, then every interval.
	go func() {
		runDispatch(ctx, job, log)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runDispatch(ctx, job, log)
			}
		}
	}()

	log.Info().
		Dur("interval", interval).
		Msg("dispatch loop started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func runDispatch(ctx context.Context, job *worker.DispatchJob, log zerolog.Logger) {
	result := job.Run(ctx)
	if result.Err != nil {
		log.Error().Err(result.Err).Msg("dispatch run failed")
		return
	}

	log.Info().
		Int("devices", result.Devices).
		Int("sent", result.Sent).
		Int("deduplicated", result.Deduplicated).
		Int("no_alert", result.NoAlert).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("disabled", result.Disabled).
		Dur("duration", result.Duration).
		Msg("dispatch run complete")
}
