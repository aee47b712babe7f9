package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secunit404/railpulse/internal/monitor"
)

func stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	return loc
}

func dailyMonitor(scheduleTime string) *monitor.Monitor {
	return &monitor.Monitor{
		ID:           "mon_daily",
		RunMode:      monitor.RunModeDaily,
		ScheduleTime: scheduleTime,
		Timezone:     "Europe/Stockholm",
		Active:       true,
	}
}

func TestMonitor_DailyDueAt(t *testing.T) {
	loc := stockholm(t)
	m := dailyMonitor("07:30")

	assert.False(t, m.DueAt(time.Date(2026, 3, 14, 7, 29, 0, 0, loc)), "before schedule")
	assert.True(t, m.DueAt(time.Date(2026, 3, 14, 7, 30, 0, 0, loc)), "at schedule")
	assert.True(t, m.DueAt(time.Date(2026, 3, 14, 9, 0, 0, 0, loc)), "missed tick is caught up")
}

func TestMonitor_DailyNotDueAfterRun(t *testing.T) {
	loc := stockholm(t)
	m := dailyMonitor("07:30")

	ran := time.Date(2026, 3, 14, 7, 30, 5, 0, loc)
	m.LastRunAt = &ran

	assert.False(t, m.DueAt(time.Date(2026, 3, 14, 8, 0, 0, 0, loc)), "already ran today")
	assert.True(t, m.DueAt(time.Date(2026, 3, 15, 7, 30, 0, 0, loc)), "due again next day")
}

func TestMonitor_DailyDueUsesMonitorTimezone(t *testing.T) {
	m := dailyMonitor("07:30")

	// 06:30 UTC is 07:30 in Stockholm during winter time.
	assert.True(t, m.DueAt(time.Date(2026, 1, 10, 6, 30, 0, 0, time.UTC)))
	assert.False(t, m.DueAt(time.Date(2026, 1, 10, 6, 29, 0, 0, time.UTC)))
}

func TestMonitor_InactiveNeverDue(t *testing.T) {
	loc := stockholm(t)
	m := dailyMonitor("07:30")
	m.Active = false

	assert.False(t, m.DueAt(time.Date(2026, 3, 14, 8, 0, 0, 0, loc)))
}

func TestMonitor_BadScheduleTimeNeverDue(t *testing.T) {
	loc := stockholm(t)
	m := dailyMonitor("not-a-clock")

	assert.False(t, m.DueAt(time.Date(2026, 3, 14, 8, 0, 0, 0, loc)))
}

func TestMonitor_OneTimeDueAt(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)
	m := &monitor.Monitor{
		ID:           "mon_once",
		RunMode:      monitor.RunModeOneTime,
		ScheduleDate: &start,
		Timezone:     "Europe/Stockholm",
		Active:       true,
	}

	assert.False(t, m.DueAt(start.Add(-time.Hour)), "before the range")
	assert.True(t, m.DueAt(start), "at range start")
	assert.True(t, m.DueAt(start.Add(26*time.Hour)), "still due until it runs")

	ran := start.Add(time.Minute)
	m.LastRunAt = &ran
	assert.False(t, m.DueAt(start.Add(2*time.Hour)), "one-time monitors run once")
}

func TestMonitor_DailySearchWindow(t *testing.T) {
	loc := stockholm(t)
	m := dailyMonitor("07:30")

	from, to := m.SearchWindow(time.Date(2026, 3, 14, 7, 30, 12, 0, loc))

	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 3, 14, 23, 59, 59, 0, loc), to)
}

func TestMonitor_OneTimeSearchWindow(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, loc)
	end := time.Date(2026, 4, 3, 0, 0, 0, 0, loc)
	m := &monitor.Monitor{
		RunMode:      monitor.RunModeOneTime,
		ScheduleDate: &start,
		EndDate:      &end,
		Timezone:     "Europe/Stockholm",
		Active:       true,
	}

	from, to := m.SearchWindow(time.Date(2026, 4, 1, 9, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 4, 3, 23, 59, 59, 0, loc), to)
}

func TestMonitor_OneTimeSearchWindowWithoutEndDate(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2026, 4, 1, 12, 0, 0, 0, loc)
	m := &monitor.Monitor{
		RunMode:      monitor.RunModeOneTime,
		ScheduleDate: &start,
		Timezone:     "Europe/Stockholm",
		Active:       true,
	}

	from, to := m.SearchWindow(start)

	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, 4, 1, 23, 59, 59, 0, loc), to)
}

func TestMonitor_Location(t *testing.T) {
	m := dailyMonitor("07:30")
	assert.Equal(t, "Europe/Stockholm", m.Location().String())

	m.Timezone = ""
	assert.Equal(t, "Europe/Stockholm", m.Location().String())

	m.Timezone = "Not/AZone"
	assert.Equal(t, "Europe/Stockholm", m.Location().String())

	m.Timezone = "Europe/Amsterdam"
	assert.Equal(t, "Europe/Amsterdam", m.Location().String())
}

func TestMonitor_IsRoute(t *testing.T) {
	m := dailyMonitor("07:30")
	assert.False(t, m.IsRoute())

	empty := ""
	m.DestinationSignature = &empty
	assert.False(t, m.IsRoute())

	dest := "Cst"
	m.DestinationSignature = &dest
	assert.True(t, m.IsRoute())
}
