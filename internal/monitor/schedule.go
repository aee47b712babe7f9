package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DueAt reports whether the monitor should run at the given instant.
//
// Daily monitors become due at ScheduleTime in their timezone and stay due
// until a run is recorded, so a missed tick is caught up on the next one.
// One-time monitors become due as soon as the instant reaches ScheduleDate
// and they have never run.
func (m *Monitor) DueAt(now time.Time) bool {
	if !m.Active {
		return false
	}

	switch m.RunMode {
	case RunModeDaily:
		scheduled, err := m.scheduledInstant(now)
		if err != nil {
			return false
		}
		if now.Before(scheduled) {
			return false
		}
		return m.LastRunAt == nil || m.LastRunAt.Before(scheduled)

	case RunModeOneTime:
		if m.ScheduleDate == nil || m.LastRunAt != nil {
			return false
		}
		return !now.Before(*m.ScheduleDate)

	default:
		return false
	}
}

// SearchWindow computes the announcement window a run at the given instant
// should query. Daily monitors cover their current service day; one-time
// monitors cover their configured date range.
func (m *Monitor) SearchWindow(now time.Time) (time.Time, time.Time) {
	loc := m.Location()

	if m.RunMode == RunModeOneTime && m.ScheduleDate != nil {
		from := startOfDay(m.ScheduleDate.In(loc))
		until := m.ScheduleDate
		if m.EndDate != nil {
			until = m.EndDate
		}
		return from, endOfDay(until.In(loc))
	}

	local := now.In(loc)
	return startOfDay(local), endOfDay(local)
}

// scheduledInstant resolves today's ScheduleTime in the monitor's timezone,
// relative to the given instant.
func (m *Monitor) scheduledInstant(now time.Time) (time.Time, error) {
	hour, minute, err := parseClock(m.ScheduleTime)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(m.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, local.Location()), nil
}

func parseClock(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid schedule time %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule time %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule time %q", value)
	}
	return hour, minute, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
