package station

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	stations []Station
}

// NewInMemoryRepository creates a new in-memory station repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// GetAll returns every cached station.
func (r *InMemoryRepository) GetAll(_ context.Context) ([]Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out, nil
}

// ReplaceAll swaps the cached directory.
func (r *InMemoryRepository) ReplaceAll(_ context.Context, stations []Station) error {
	now := time.Now()
	replacement := make([]Station, len(stations))
	copy(replacement, stations)
	for i := range replacement {
		if replacement[i].CachedAt.IsZero() {
			replacement[i].CachedAt = now
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = replacement
	return nil
}

// NewestCachedAt returns the most recent cache timestamp.
func (r *InMemoryRepository) NewestCachedAt(_ context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest time.Time
	for _, s := range r.stations {
		if s.CachedAt.After(newest) {
			newest = s.CachedAt
		}
	}
	return newest, nil
}
