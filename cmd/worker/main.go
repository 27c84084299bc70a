// Package main provides the entrypoint for the cleanroute cache warmer.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/airgrid/openaq"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
	"github.com/cleanroute/cleanroute/internal/weather"
	"github.com/cleanroute/cleanroute/internal/weather/openweathermap"
	"github.com/cleanroute/cleanroute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cleanroute-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting cleanroute worker")

	// Worker also exposes a health endpoint for the container platform.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	refreshInterval := 15 * time.Minute
	if raw := os.Getenv("REFRESH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			refreshInterval = d
		} else {
			log.Warn().Str("value", raw).Msg("invalid REFRESH_INTERVAL, using default")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := resilience.NewRegistry()

	openaqClient := openaq.NewClient(openaq.ClientConfig{
		APIKey:   os.Getenv("OPENAQ_API_KEY"),
		Registry: registry,
		Logger:   log,
	})
	gridService := airgrid.NewService(openaqClient, airgrid.NewMemoryCache(), airgrid.ServiceConfig{
		Logger: log,
	})

	owmClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:   os.Getenv("OPENWEATHERMAP_API_KEY"),
		Registry: registry,
		Logger:   log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: owmClient,
		Logger:   log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:         worker.DefaultRefreshConfig(),
		Logger:         log,
		GridService:    gridService,
		WeatherService: weatherService,
	})

	// Health endpoint with refresh metrics.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"refresh": refreshJob.MetricsSnapshot(),
		})
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
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Periodic refresh loop. Runs once on startup so caches are warm
	// before the first tick.
	go func() {
		refreshJob.Run(ctx)

		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshJob.Run(ctx)
			}
		}
	}()

	// Optional Pub/Sub trigger for on-demand refreshes.
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
		if subscription == "" {
			subscription = "cleanroute-refresh"
		}

		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler failed")
			}
		}()
	} else {
		log.Info().Msg("PUBSUB_PROJECT_ID not set, running on interval only")
	}

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
