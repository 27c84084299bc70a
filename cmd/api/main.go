// Package main provides the entrypoint for the cleanroute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanroute/cleanroute/internal/airgrid"
	"github.com/cleanroute/cleanroute/internal/airgrid/openaq"
	owmair "github.com/cleanroute/cleanroute/internal/airgrid/openweathermap"
	"github.com/cleanroute/cleanroute/internal/api"
	"github.com/cleanroute/cleanroute/internal/api/middleware"
	"github.com/cleanroute/cleanroute/internal/exposure"
	"github.com/cleanroute/cleanroute/internal/provider/resilience"
	"github.com/cleanroute/cleanroute/internal/routing"
	"github.com/cleanroute/cleanroute/internal/routing/osrm"
	"github.com/cleanroute/cleanroute/internal/telemetry"
	"github.com/cleanroute/cleanroute/internal/weather"
	"github.com/cleanroute/cleanroute/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cleanroute-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting cleanroute API")

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

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Shared registry so ops endpoints can report provider health.
	registry := resilience.NewRegistry()

	// Routing provider.
	osrmClient := osrm.NewClient(osrm.ClientConfig{
		BaseURL:  os.Getenv("OSRM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: osrmClient,
		Logger:   log,
	})
	log.Info().Str("provider", osrmClient.Name()).Msg("routing service initialized")

	// Air quality provider.
	openaqKey := os.Getenv("OPENAQ_API_KEY")
	if openaqKey == "" {
		log.Warn().Msg("OPENAQ_API_KEY not set - air quality requests will be rejected upstream")
	}
	openaqClient := openaq.NewClient(openaq.ClientConfig{
		APIKey:   openaqKey,
		Registry: registry,
		Logger:   log,
	})
	owmKey := os.Getenv("OPENWEATHERMAP_API_KEY")
	if owmKey == "" {
		log.Warn().Msg("OPENWEATHERMAP_API_KEY not set - weather and forecast requests will be rejected upstream")
	}
	forecastClient := owmair.NewClient(owmair.ClientConfig{
		APIKey:   owmKey,
		Registry: registry,
		Logger:   log,
	})
	gridService := airgrid.NewService(openaqClient, airgrid.NewMemoryCache(), airgrid.ServiceConfig{
		Forecast: forecastClient,
		Logger:   log,
	})
	log.Info().Str("provider", gridService.Provider()).Msg("air grid service initialized")

	// Exposure scoring over the air grid.
	scorer := exposure.NewScorer(gridService, exposure.ScorerConfig{
		Logger: log,
	})

	// Weather provider.
	owmClient := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:   owmKey,
		Registry: registry,
		Logger:   log,
	})
	weatherService := weather.NewService(weather.ServiceConfig{
		Provider: owmClient,
		Logger:   log,
	})
	log.Info().Str("provider", weatherService.Provider()).Msg("weather service initialized")

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		Metrics:        metrics,
		RoutingService: routingService,
		Scorer:         scorer,
		GridService:    gridService,
		WeatherService: weatherService,
		Registry:       registry,
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
