// Package api provides the HTTP API for RailPulse.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/api/handler"
	"github.com/secunit404/railpulse/internal/api/middleware"
	"github.com/secunit404/railpulse/internal/auth"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
	"github.com/secunit404/railpulse/internal/provider/resilience"
	"github.com/secunit404/railpulse/internal/reasoncode"
	"github.com/secunit404/railpulse/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	AuthService    *auth.Service
	MonitorService *monitor.Service
	HistoryService *history.Service
	StationService *station.Service
	ReasonCodes    *reasoncode.Service

	Announcements handler.AnnouncementSource
	RunTrigger    handler.RunTrigger
	DB            handler.Pinger
	Providers     *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "railpulse-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.DB, cfg.Providers)
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	delayHandler := handler.NewDelayHandler(cfg.Announcements, cfg.StationService, cfg.ReasonCodes, cfg.HistoryService)
	monitorHandler := handler.NewMonitorHandler(cfg.MonitorService, cfg.RunTrigger)
	stationHandler := handler.NewStationHandler(cfg.StationService)
	historyHandler := handler.NewHistoryHandler(cfg.HistoryService)

	authMiddleware := middleware.Auth(cfg.AuthService)

	authRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)
	searchRateLimit := middleware.RateLimitByIP(middleware.SearchRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints (public) - strict rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Use(authRateLimit)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
			// logout-all requires authentication
			r.With(authMiddleware).Post("/logout-all", authHandler.LogoutAll)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Station directory search (public) - standard rate limiting
		r.With(standardRateLimit).Get("/stations", stationHandler.SearchStations)

		// Delay search - upstream round trip, strict rate limiting
		r.With(authMiddleware, searchRateLimit).Post("/delays/search", delayHandler.Search)

		// Monitors (authenticated) - user-based rate limiting
		r.Route("/monitors", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", monitorHandler.ListMonitors)
			r.Post("/", monitorHandler.CreateMonitor)
			r.Route("/{monitorId}", func(r chi.Router) {
				r.Get("/", monitorHandler.GetMonitor)
				r.Put("/", monitorHandler.UpdateMonitor)
				r.Delete("/", monitorHandler.DeleteMonitor)
				r.Post("/run", monitorHandler.RunMonitor)
			})
		})

		// Search history (authenticated)
		r.Route("/history", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RateLimitByUser(middleware.StandardRateLimit))
			r.Get("/", historyHandler.ListHistory)
			r.Delete("/", historyHandler.ClearHistory)
		})
	})

	return r
}
