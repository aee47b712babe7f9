// Package station provides the station directory: a TTL-cached mapping from
// Trafikverket location signatures to advertised station names. The
// directory is refreshed from the upstream catalog on a long cadence and
// persisted so restarts do not require an upstream round trip.
package station

import (
	"errors"
	"time"
)

// Directory errors.
var (
	// ErrNotFound is returned when a signature is not in the directory.
	ErrNotFound = errors.New("station not found")

	// ErrProviderUnavailable is returned when the upstream catalog cannot be
	// fetched and no cached copy is usable.
	ErrProviderUnavailable = errors.New("station provider unavailable")
)

// Station is one directory entry.
type Station struct {
	// Signature is the location signature, e.g. "G" for Göteborg C.
	Signature string

	// AdvertisedName is the full public name.
	AdvertisedName string

	// ShortName is the abbreviated public name, empty if none.
	ShortName string

	// CachedAt is when this entry was stored locally.
	CachedAt time.Time
}
