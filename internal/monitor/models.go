// Package monitor provides scheduled delay monitor management.
package monitor

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrMonitorNotFound = errors.New("monitor not found")
)

// RunMode selects how a monitor is scheduled.
type RunMode string

const (
	// RunModeDaily runs the monitor every day at ScheduleTime.
	RunModeDaily RunMode = "daily"

	// RunModeOneTime runs the monitor once for the ScheduleDate..EndDate
	// range, after which the worker deactivates it.
	RunModeOneTime RunMode = "one-time"
)

// DefaultTimezone is used when a monitor does not name one. Trafikverket
// reports all times in Swedish local time.
const DefaultTimezone = "Europe/Stockholm"

// RunStatus values recorded after a monitor run.
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// Monitor is a configured delay watch. A monitor with only a station
// signature watches departures from that station; one with a destination as
// well watches effective delays over the route between them.
type Monitor struct {
	ID                   string
	UserID               string
	Name                 string
	StationSignature     string
	StationName          string
	DestinationSignature *string
	DestinationName      *string
	RunMode              RunMode
	ScheduleTime         string
	ScheduleDate         *time.Time
	EndDate              *time.Time
	Timezone             string
	DelayThreshold       int
	HideBusReplacements  bool
	DiscordWebhookURL    string
	Active               bool
	LastRunAt            *time.Time
	LastRunStatus        string
	LastRunDelayCount    *int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsRoute reports whether the monitor watches a route rather than a single
// station.
func (m *Monitor) IsRoute() bool {
	return m.DestinationSignature != nil && *m.DestinationSignature != ""
}

// Location resolves the monitor's timezone, falling back to DefaultTimezone
// on an empty or unknown name.
func (m *Monitor) Location() *time.Location {
	name := m.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, _ = time.LoadLocation(DefaultTimezone)
	}
	return loc
}

// RunResult records the outcome of one monitor run.
type RunResult struct {
	RanAt      time.Time
	Status     string
	DelayCount int

	// Deactivate marks the monitor inactive together with the run record,
	// used for one-time monitors after they fire.
	Deactivate bool
}
