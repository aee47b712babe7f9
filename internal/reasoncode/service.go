// Package reasoncode maintains the disruption reason-code catalog and the
// severity snapshot derived from it. The catalog is refreshed on a daily
// cadence; each delay computation captures the snapshot current at its start
// and is never affected by a rebuild happening underneath it.
package reasoncode

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/telemetry"
)

// metricsProvider labels catalog metrics with their upstream source.
const metricsProvider = "trafikverket"

// ErrProviderUnavailable is returned when the catalog cannot be fetched and
// no cached copy exists. Callers may still proceed with an empty snapshot;
// ranking then degrades instead of failing.
var ErrProviderUnavailable = errors.New("reason code provider unavailable")

// Provider fetches the reason-code catalog from the upstream API.
type Provider interface {
	GetReasonCodes(ctx context.Context) ([]delay.ReasonCode, error)
}

// Repository persists the catalog between refreshes.
type Repository interface {
	// GetAll returns every cached reason code.
	GetAll(ctx context.Context) ([]delay.ReasonCode, error)

	// ReplaceAll atomically swaps the cached catalog.
	ReplaceAll(ctx context.Context, codes []delay.ReasonCode) error

	// NewestCachedAt returns the most recent cache timestamp, or the zero
	// time when the cache is empty.
	NewestCachedAt(ctx context.Context) (time.Time, error)
}

// ServiceConfig holds configuration for the catalog service.
type ServiceConfig struct {
	Repository Repository
	Provider   Provider
	Logger     zerolog.Logger

	// CacheTTL is how long a synced catalog stays fresh (default: 24 hours).
	CacheTTL time.Duration

	// Metrics records catalog fetches and cache outcomes. Optional.
	Metrics *telemetry.ProviderMetrics
}

// Service supplies immutable severity snapshots built from the catalog.
type Service struct {
	repo     Repository
	provider Provider
	logger   zerolog.Logger
	cacheTTL time.Duration
	metrics  *telemetry.ProviderMetrics

	mu         sync.RWMutex
	priorities delay.Priorities
	refreshed  time.Time

	syncMu sync.Mutex
}

// NewService creates a new catalog service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &Service{
		repo:     cfg.Repository,
		provider: cfg.Provider,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		metrics:  cfg.Metrics,
	}
}

// Snapshot returns the current reason-priority snapshot, refreshing the
// catalog first when the TTL has lapsed. The returned map is never mutated
// afterwards; a later refresh installs a new map instead. When no catalog
// can be obtained at all an empty snapshot is returned: every code then
// classifies as unclassified, which degrades ranking without failing the
// computation.
func (s *Service) Snapshot(ctx context.Context) delay.Priorities {
	s.mu.RLock()
	fresh := !s.refreshed.IsZero() && time.Since(s.refreshed) < s.cacheTTL
	priorities := s.priorities
	s.mu.RUnlock()
	if fresh {
		return priorities
	}

	if err := s.ensureFresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("reason catalog unavailable, ranking degrades to unclassified")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.priorities == nil {
		return delay.Priorities{}
	}
	return s.priorities
}

// ensureFresh refreshes the snapshot, serializing concurrent callers.
func (s *Service) ensureFresh(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.RLock()
	fresh := !s.refreshed.IsZero() && time.Since(s.refreshed) < s.cacheTTL
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	newest, err := s.repo.NewestCachedAt(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading reason code cache age")
	}

	if err == nil && !newest.IsZero() && time.Since(newest) < s.cacheTTL {
		codes, err := s.repo.GetAll(ctx)
		if err == nil && len(codes) > 0 {
			s.metrics.RecordCacheHit(metricsProvider, "get-reason-codes")
			s.install(codes)
			s.logger.Debug().Int("codes", len(codes)).Msg("reason codes loaded from cache")
			return nil
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("loading reason code cache")
		}
	}

	s.logger.Info().Msg("syncing reason codes from provider")
	s.metrics.RecordCacheMiss(metricsProvider, "get-reason-codes")

	start := time.Now()
	codes, err := s.provider.GetReasonCodes(ctx)
	s.metrics.RecordRequest(metricsProvider, "get-reason-codes", time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).Msg("reason code fetch failed")

		stale, cacheErr := s.repo.GetAll(ctx)
		if cacheErr == nil && len(stale) > 0 {
			s.install(stale)
			s.logger.Warn().Int("codes", len(stale)).Msg("serving stale reason codes")
			return nil
		}
		return ErrProviderUnavailable
	}

	if err := s.repo.ReplaceAll(ctx, codes); err != nil {
		s.logger.Error().Err(err).Msg("persisting reason codes")
	}
	s.install(codes)

	s.logger.Info().Int("codes", len(codes)).Msg("reason codes synced")
	return nil
}

// install builds and swaps in a new snapshot.
func (s *Service) install(codes []delay.ReasonCode) {
	priorities := delay.BuildPriorities(codes)

	s.mu.Lock()
	s.priorities = priorities
	s.refreshed = time.Now()
	s.mu.Unlock()
}
