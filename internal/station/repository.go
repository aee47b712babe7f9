package station

import (
	"context"
	"time"
)

// Repository persists the station directory between refreshes.
type Repository interface {
	// GetAll returns every cached station.
	GetAll(ctx context.Context) ([]Station, error)

	// ReplaceAll atomically swaps the cached directory for a new catalog.
	ReplaceAll(ctx context.Context, stations []Station) error

	// NewestCachedAt returns the most recent cache timestamp, or the zero
	// time when the cache is empty.
	NewestCachedAt(ctx context.Context) (time.Time, error)
}
