package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/api/models"
)

const (
	// DefaultListLimit bounds history listings when the caller does not
	// ask for a specific count.
	DefaultListLimit = 20

	// MaxListLimit is the hard cap on history listings.
	MaxListLimit = 100

	// DefaultRetention is how long entries are kept before pruning.
	DefaultRetention = 90 * 24 * time.Hour
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// Retention overrides DefaultRetention when positive.
	Retention time.Duration
}

// Service provides search history operations.
type Service struct {
	repo      Repository
	logger    zerolog.Logger
	retention time.Duration
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{
		repo:      cfg.Repository,
		logger:    cfg.Logger,
		retention: retention,
	}
}

// RecordedSearch captures the parameters of a search to be recorded.
type RecordedSearch struct {
	StationSignature     string
	StationName          string
	DestinationSignature string
	DestinationName      string
	MinDelayMinutes      int
	ResultCount          int
}

// Record stores a search for the user. Recording is best-effort; failures
// are logged and never surfaced to the search caller.
func (s *Service) Record(ctx context.Context, userID string, search RecordedSearch) {
	entry := &SearchEntry{
		ID:               "sh_" + uuid.New().String()[:22],
		UserID:           userID,
		Type:             SearchTypeStation,
		StationSignature: search.StationSignature,
		StationName:      search.StationName,
		MinDelayMinutes:  search.MinDelayMinutes,
		ResultCount:      search.ResultCount,
		SearchedAt:       time.Now(),
	}

	if search.DestinationSignature != "" {
		entry.Type = SearchTypeRoute
		destSig := search.DestinationSignature
		destName := search.DestinationName
		entry.DestinationSignature = &destSig
		entry.DestinationName = &destName
	}

	if err := s.repo.Add(ctx, entry); err != nil {
		s.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("station", search.StationSignature).
			Msg("failed to record search history entry")
	}
}

// List retrieves a user's recent searches.
func (s *Service) List(ctx context.Context, userID string, limit int) (*models.SearchHistoryList, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]models.SearchHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, models.SearchHistoryEntry{
			ID:                   entry.ID,
			Type:                 string(entry.Type),
			StationSignature:     entry.StationSignature,
			StationName:          entry.StationName,
			DestinationSignature: entry.DestinationSignature,
			DestinationName:      entry.DestinationName,
			MinDelayMinutes:      entry.MinDelayMinutes,
			ResultCount:          entry.ResultCount,
			SearchedAt:           models.Timestamp(entry.SearchedAt),
		})
	}
	return &models.SearchHistoryList{Items: items}, nil
}

// Clear removes all of a user's search history.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}

// Prune removes entries older than the retention window. The worker calls
// this periodically.
func (s *Service) Prune(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("pruned search history")
	}
	return nil
}
