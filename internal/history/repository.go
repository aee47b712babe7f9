package history

import (
	"context"
	"time"
)

// Repository defines the interface for search history persistence.
type Repository interface {
	// Add stores a search entry.
	Add(ctx context.Context, entry *SearchEntry) error

	// ListByUser retrieves a user's entries, most recent first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*SearchEntry, error)

	// DeleteByUser removes all entries for a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteOlderThan removes entries searched before the cutoff and
	// returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
