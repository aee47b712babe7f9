package station

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/telemetry"
)

// metricsProvider labels catalog metrics with their upstream source.
const metricsProvider = "trafikverket"

// Provider fetches the station catalog from the upstream API.
type Provider interface {
	GetStations(ctx context.Context) ([]Station, error)
}

// ServiceConfig holds configuration for the directory service.
type ServiceConfig struct {
	// Repository persists the directory between refreshes.
	Repository Repository

	// Provider is the upstream catalog source.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a synced catalog stays fresh (default: 30 days).
	// Station data changes with timetable revisions, not daily.
	CacheTTL time.Duration

	// Metrics records catalog fetches and cache outcomes. Optional.
	Metrics *telemetry.ProviderMetrics
}

// Service is the station directory. It keeps the whole catalog in memory
// behind a read lock and refreshes it from the repository or the provider
// when the TTL lapses. Lookups read the snapshot the last refresh installed,
// so a concurrent refresh never changes names mid-computation.
type Service struct {
	repo     Repository
	provider Provider
	logger   zerolog.Logger
	cacheTTL time.Duration
	metrics  *telemetry.ProviderMetrics

	mu        sync.RWMutex
	names     map[string]string // signature -> advertised name
	stations  []Station
	refreshed time.Time

	syncMu sync.Mutex // serializes refreshes
}

// NewService creates a new directory service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * 24 * time.Hour
	}

	return &Service{
		repo:     cfg.Repository,
		provider: cfg.Provider,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		metrics:  cfg.Metrics,
		names:    make(map[string]string),
	}
}

// EnsureFresh makes sure the in-memory directory is loaded and within TTL.
// Concurrent callers are serialized; only the first does the work.
func (s *Service) EnsureFresh(ctx context.Context) error {
	s.mu.RLock()
	fresh := !s.refreshed.IsZero() && time.Since(s.refreshed) < s.cacheTTL
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	// Another caller may have finished the refresh while we waited.
	s.mu.RLock()
	fresh = !s.refreshed.IsZero() && time.Since(s.refreshed) < s.cacheTTL
	s.mu.RUnlock()
	if fresh {
		return nil
	}

	return s.refresh(ctx)
}

// refresh loads the directory, preferring a fresh repository cache over an
// upstream fetch. Must hold syncMu.
func (s *Service) refresh(ctx context.Context) error {
	newest, err := s.repo.NewestCachedAt(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading station cache age")
	}

	if err == nil && !newest.IsZero() && time.Since(newest) < s.cacheTTL {
		stations, err := s.repo.GetAll(ctx)
		if err == nil && len(stations) > 0 {
			s.metrics.RecordCacheHit(metricsProvider, "get-stations")
			s.install(stations)
			s.logger.Debug().Int("stations", len(stations)).Msg("station directory loaded from cache")
			return nil
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("loading station cache")
		}
	}

	s.logger.Info().Msg("syncing station directory from provider")
	s.metrics.RecordCacheMiss(metricsProvider, "get-stations")

	start := time.Now()
	stations, err := s.provider.GetStations(ctx)
	s.metrics.RecordRequest(metricsProvider, "get-stations", time.Since(start), err)
	if err != nil {
		s.logger.Error().Err(err).Msg("station catalog fetch failed")

		// A stale cache still beats no directory; lookups then degrade to
		// raw signatures only for stations added since the last sync.
		stale, cacheErr := s.repo.GetAll(ctx)
		if cacheErr == nil && len(stale) > 0 {
			s.install(stale)
			s.logger.Warn().Int("stations", len(stale)).Msg("serving stale station directory")
			return nil
		}
		return ErrProviderUnavailable
	}

	if err := s.repo.ReplaceAll(ctx, stations); err != nil {
		s.logger.Error().Err(err).Msg("persisting station directory")
	}
	s.install(stations)

	s.logger.Info().Int("stations", len(stations)).Msg("station directory synced")
	return nil
}

// install swaps the in-memory snapshot.
func (s *Service) install(stations []Station) {
	names := make(map[string]string, len(stations))
	for _, st := range stations {
		names[st.Signature] = st.AdvertisedName
	}

	s.mu.Lock()
	s.names = names
	s.stations = stations
	s.refreshed = time.Now()
	s.mu.Unlock()
}

// LookupName resolves a signature to its advertised name.
func (s *Service) LookupName(signature string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[signature]
	return name, ok
}

// Search returns stations whose signature or name contains the query,
// case-insensitively, capped at limit.
func (s *Service) Search(query string, limit int) []Station {
	if limit <= 0 {
		limit = 25
	}
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Station
	for _, st := range s.stations {
		if q == "" ||
			strings.Contains(strings.ToLower(st.Signature), q) ||
			strings.Contains(strings.ToLower(st.AdvertisedName), q) ||
			strings.Contains(strings.ToLower(st.ShortName), q) {
			matches = append(matches, st)
			if len(matches) == limit {
				break
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].AdvertisedName < matches[j].AdvertisedName
	})
	return matches
}

// Count returns the number of stations in the loaded directory.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}
