// Package main provides the entrypoint for the RailPulse API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/api"
	"github.com/secunit404/railpulse/internal/api/middleware"
	"github.com/secunit404/railpulse/internal/auth"
	"github.com/secunit404/railpulse/internal/database"
	"github.com/secunit404/railpulse/internal/delay/trafikverket"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
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
	const serviceName = "railpulse-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting RailPulse API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	ctx := context.Background()

	tp := initTelemetry(ctx, log, serviceName, env)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
	})

	authService := auth.NewService(auth.ServiceConfig{
		JWTService:  jwtService,
		UserRepo:    auth.NewPostgresUserRepository(pool),
		RefreshRepo: auth.NewPostgresRefreshTokenRepository(pool),
		InviteRepo:  auth.NewPostgresInviteRepository(pool),
	})
	log.Info().Msg("auth service initialized")

	// Initialize the Trafikverket client behind a tracked resilient
	// transport so /v1/ops/status can report on it.
	providers := resilience.NewRegistry()

	trafikverketHTTP := resilience.NewClient(resilience.DefaultClientConfig(trafikverket.ProviderName))
	providers.Register(trafikverket.ProviderName, trafikverketHTTP)

	trafikverketClient := trafikverket.NewClient(trafikverket.ClientConfig{
		APIKey:     os.Getenv("TRAFIKVERKET_API_KEY"),
		HTTPClient: trafikverketHTTP,
		Logger:     log,
	})

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
	}

	// Initialize catalog services backed by Postgres caches
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
	log.Info().Msg("catalog services initialized")

	// Initialize monitor and history services
	monitorService := monitor.NewService(monitor.NewPostgresRepository(pool), stationService)
	historyService := history.NewService(history.ServiceConfig{
		Repository: history.NewPostgresRepository(pool),
		Logger:     log,
	})
	log.Info().Msg("monitor and history services initialized")

	// Initialize the on-demand run publisher. Without a Pub/Sub project the
	// manual run endpoint answers 503 but everything else still works.
	var runTrigger *worker.RunPublisher
	if projectID := os.Getenv("PUBSUB_PROJECT_ID"); projectID != "" {
		runTrigger, err = worker.NewRunPublisher(ctx, worker.RunPublisherConfig{
			ProjectID: projectID,
			TopicName: getEnvOrDefault("PUBSUB_TOPIC", "monitor-jobs"),
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create run publisher")
		}
		defer func() {
			if closeErr := runTrigger.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close run publisher")
			}
		}()
		log.Info().Msg("run publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - manual monitor runs disabled")
	}

	// Create router with configuration
	routerCfg := api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		AuthService:    authService,
		MonitorService: monitorService,
		HistoryService: historyService,
		StationService: stationService,
		ReasonCodes:    reasonCodeService,
		Announcements:  trafikverketClient,
		DB:             pool,
		Providers:      providers,
	}
	if runTrigger != nil {
		routerCfg.RunTrigger = runTrigger
	}
	router := api.NewRouter(routerCfg)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func initTelemetry(ctx context.Context, log zerolog.Logger, serviceName, env string) *telemetry.Provider {
	otlpEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	enabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	if enabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}
	return tp
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
