// Package main provides the entrypoint for the RailPulse worker, which runs
// scheduled monitors and processes on-demand run jobs from Pub/Sub.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/database"
	"github.com/secunit404/railpulse/internal/delay/trafikverket"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
	"github.com/secunit404/railpulse/internal/notify/discord"
	"github.com/secunit404/railpulse/internal/provider/resilience"
	"github.com/secunit404/railpulse/internal/reasoncode"
	"github.com/secunit404/railpulse/internal/station"
	"github.com/secunit404/railpulse/internal/telemetry"
	"github.com/secunit404/railpulse/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "railpulse-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RailPulse worker")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Enabled:        os.Getenv("OTEL_ENABLED") == "true",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	providers := resilience.NewRegistry()

	trafikverketHTTP := resilience.NewClient(resilience.DefaultClientConfig(trafikverket.ProviderName))
	providers.Register(trafikverket.ProviderName, trafikverketHTTP)

	trafikverketClient := trafikverket.NewClient(trafikverket.ClientConfig{
		APIKey:     os.Getenv("TRAFIKVERKET_API_KEY"),
		HTTPClient: trafikverketHTTP,
		Logger:     log,
	})

	discordHTTP := resilience.NewClient(resilience.DefaultClientConfig(discord.ProviderName))
	providers.Register(discord.ProviderName, discordHTTP)

	discordClient := discord.NewClient(discord.ClientConfig{
		HTTPClient: discordHTTP,
		Logger:     log,
	})

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
	}

	stationService := station.NewService(station.ServiceConfig{
		Repository: station.NewPostgresRepository(pool),
		Provider:   trafikverketClient,
		Logger:     log,
		Metrics:    providerMetrics,
	})

	reasonCodeService := reasoncode.NewService(reasoncode.ServiceConfig{
		Repository: reasoncode.NewPostgresRepository(pool),
		Provider:   trafikverketClient,
		Logger:     log,
		Metrics:    providerMetrics,
	})

	monitorRepo := monitor.NewPostgresRepository(pool)
	historyService := history.NewService(history.ServiceConfig{
		Repository: history.NewPostgresRepository(pool),
		Logger:     log,
	})

	workerConfig := worker.DefaultConfig()

	runJob := worker.NewRunJob(worker.RunJobConfig{
		Config:        workerConfig,
		Logger:        log,
		Monitors:      monitorRepo,
		Announcements: trafikverketClient,
		Stations:      stationService,
		ReasonCodes:   reasonCodeService,
		History:       historyService,
		Notifier:      discordClient,
	})

	scheduler := worker.NewScheduler(worker.SchedulerConfig{
		Config:   workerConfig,
		Logger:   log,
		Monitors: monitorRepo,
		Job:      runJob,
	})

	go func() {
		if runErr := scheduler.Start(ctx); runErr != nil && runErr != context.Canceled {
			log.Error().Err(runErr).Msg("scheduler stopped")
		}
	}()

	// On-demand runs arrive over Pub/Sub when configured; without it the
	// scheduler alone keeps daily monitors running.
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		pubsubHandler, psErr := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "monitor-jobs-worker"),
			RunJob:           runJob,
			History:          historyService,
			Logger:           log,
		})
		if psErr != nil {
			log.Fatal().Err(psErr).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub handler")
			}
		}()

		go func() {
			if runErr := pubsubHandler.Start(ctx); runErr != nil && runErr != context.Canceled {
				log.Error().Err(runErr).Msg("pubsub handler stopped")
			}
		}()
		log.Info().Str("project", projectID).Msg("pubsub handler started")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - on-demand runs disabled")
	}

	// Health endpoint for the container platform.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"OK","version":"` + Version + `"}`))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if srvErr := server.ListenAndServe(); srvErr != nil && srvErr != http.ErrServerClosed {
			log.Fatal().Err(srvErr).Msg("health server error")
		}
	}()

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

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
