// Package history records delay searches so users can re-run them.
package history

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrEntryNotFound = errors.New("search history entry not found")
)

// SearchType distinguishes station searches from route searches.
type SearchType string

const (
	SearchTypeStation SearchType = "station"
	SearchTypeRoute   SearchType = "route"
)

// SearchEntry is one recorded delay search.
type SearchEntry struct {
	ID                   string
	UserID               string
	Type                 SearchType
	StationSignature     string
	StationName          string
	DestinationSignature *string
	DestinationName      *string
	MinDelayMinutes      int
	ResultCount          int
	SearchedAt           time.Time
}
