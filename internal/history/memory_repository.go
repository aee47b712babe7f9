package history

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]*SearchEntry
}

// NewInMemoryRepository creates a new in-memory search history repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]*SearchEntry)}
}

// Add stores a search entry.
func (r *InMemoryRepository) Add(_ context.Context, entry *SearchEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

// ListByUser retrieves a user's entries, most recent first.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string, limit int) ([]*SearchEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*SearchEntry
	for _, entry := range r.entries {
		if entry.UserID != userID {
			continue
		}
		clone := *entry
		entries = append(entries, &clone)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SearchedAt.After(entries[j].SearchedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// DeleteByUser removes all entries for a user.
func (r *InMemoryRepository) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.entries {
		if entry.UserID == userID {
			delete(r.entries, id)
		}
	}
	return nil
}

// DeleteOlderThan removes entries searched before the cutoff.
func (r *InMemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, entry := range r.entries {
		if entry.SearchedAt.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
