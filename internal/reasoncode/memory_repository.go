package reasoncode

import (
	"context"
	"sync"
	"time"

	"github.com/secunit404/railpulse/internal/delay"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	codes    []delay.ReasonCode
	cachedAt time.Time
}

// NewInMemoryRepository creates a new in-memory reason-code repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// GetAll returns every cached reason code.
func (r *InMemoryRepository) GetAll(_ context.Context) ([]delay.ReasonCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]delay.ReasonCode, len(r.codes))
	copy(out, r.codes)
	return out, nil
}

// ReplaceAll swaps the cached catalog.
func (r *InMemoryRepository) ReplaceAll(_ context.Context, codes []delay.ReasonCode) error {
	replacement := make([]delay.ReasonCode, len(codes))
	copy(replacement, codes)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = replacement
	r.cachedAt = time.Now()
	return nil
}

// NewestCachedAt returns the most recent cache timestamp.
func (r *InMemoryRepository) NewestCachedAt(_ context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cachedAt, nil
}

// Seed replaces the catalog and backdates the cache timestamp, for tests
// that need a stale cache.
func (r *InMemoryRepository) Seed(codes []delay.ReasonCode, cachedAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append([]delay.ReasonCode(nil), codes...)
	r.cachedAt = cachedAt
}
