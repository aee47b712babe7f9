package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/delay"
	"github.com/secunit404/railpulse/internal/delay/trafikverket"
	"github.com/secunit404/railpulse/internal/history"
	"github.com/secunit404/railpulse/internal/monitor"
	"github.com/secunit404/railpulse/internal/notify/discord"
	"github.com/secunit404/railpulse/internal/reasoncode"
	"github.com/secunit404/railpulse/internal/station"
)

// AnnouncementSource fetches train announcements for a search window.
type AnnouncementSource interface {
	GetAnnouncements(ctx context.Context, query trafikverket.AnnouncementQuery) ([]delay.Announcement, error)
}

// Notifier delivers a delay report to a webhook.
type Notifier interface {
	SendReport(ctx context.Context, webhookURL string, report discord.Report) error
}

// RunJob executes monitors: it fetches the monitor's window of announcements,
// runs the delay calculator and posts findings to the monitor's webhook.
type RunJob struct {
	config        Config
	logger        zerolog.Logger
	monitors      monitor.Repository
	announcements AnnouncementSource
	stations      *station.Service
	reasonCodes   *reasoncode.Service
	history       *history.Service
	notifier      Notifier

	metrics *RunMetrics
}

// RunMetrics tracks run job statistics.
type RunMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	DelaysReported int64
	Notifications  int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// RunJobConfig holds configuration for creating a RunJob.
type RunJobConfig struct {
	Config        Config
	Logger        zerolog.Logger
	Monitors      monitor.Repository
	Announcements AnnouncementSource
	Stations      *station.Service
	ReasonCodes   *reasoncode.Service
	History       *history.Service
	Notifier      Notifier
}

// NewRunJob creates a new monitor run processor.
func NewRunJob(cfg RunJobConfig) *RunJob {
	return &RunJob{
		config:        cfg.Config.withDefaults(),
		logger:        cfg.Logger,
		monitors:      cfg.Monitors,
		announcements: cfg.Announcements,
		stations:      cfg.Stations,
		reasonCodes:   cfg.ReasonCodes,
		history:       cfg.History,
		notifier:      cfg.Notifier,
		metrics:       &RunMetrics{},
	}
}

// RunByID loads a monitor and executes it. Used for on-demand runs.
func (j *RunJob) RunByID(ctx context.Context, monitorID string) error {
	m, err := j.monitors.Get(ctx, monitorID)
	if err != nil {
		return fmt.Errorf("loading monitor %s: %w", monitorID, err)
	}
	return j.Run(ctx, m)
}

// Run executes one monitor. The outcome is recorded on the monitor whether
// the run succeeds or fails; one-time monitors are deactivated after a
// successful run.
func (j *RunJob) Run(ctx context.Context, m *monitor.Monitor) error {
	startTime := time.Now()

	logger := j.logger.With().
		Str("monitor_id", m.ID).
		Str("monitor", m.Name).
		Str("station", m.StationSignature).
		Logger()

	runCtx, cancel := context.WithTimeout(ctx, j.config.RunTimeout)
	defer cancel()

	delays, err := j.computeDelays(runCtx, m, startTime)
	if err != nil {
		logger.Error().Err(err).Msg("monitor run failed")
		j.recordOutcome(m, monitor.RunResult{
			RanAt:  startTime,
			Status: monitor.RunStatusFailure,
		})
		j.updateMetrics(startTime, 0, false)
		return err
	}

	if len(delays) > 0 && j.notifier != nil {
		report := discord.Report{
			MonitorName: m.Name,
			Subject:     j.subjectFor(m),
			Threshold:   m.DelayThreshold,
			Delays:      delays,
			RanAt:       startTime,
		}
		if err := j.notifier.SendReport(runCtx, m.DiscordWebhookURL, report); err != nil {
			logger.Error().Err(err).Msg("webhook delivery failed")
			j.recordOutcome(m, monitor.RunResult{
				RanAt:      startTime,
				Status:     monitor.RunStatusFailure,
				DelayCount: len(delays),
			})
			j.updateMetrics(startTime, len(delays), false)
			return fmt.Errorf("delivering report: %w", err)
		}
		j.metrics.mu.Lock()
		j.metrics.Notifications++
		j.metrics.mu.Unlock()
	}

	j.recordHistory(runCtx, m, len(delays))

	j.recordOutcome(m, monitor.RunResult{
		RanAt:      startTime,
		Status:     monitor.RunStatusSuccess,
		DelayCount: len(delays),
		Deactivate: m.RunMode == monitor.RunModeOneTime,
	})
	j.updateMetrics(startTime, len(delays), true)

	logger.Info().
		Int("delays", len(delays)).
		Dur("duration", time.Since(startTime)).
		Msg("monitor run completed")
	return nil
}

func (j *RunJob) computeDelays(ctx context.Context, m *monitor.Monitor, now time.Time) ([]delay.StationDelay, error) {
	if err := j.stations.EnsureFresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing station directory: %w", err)
	}

	from, to := m.SearchWindow(now)

	signatures := []string{m.StationSignature}
	if m.IsRoute() {
		signatures = append(signatures, *m.DestinationSignature)
	}

	announcements, err := j.announcements.GetAnnouncements(ctx, trafikverket.AnnouncementQuery{
		LocationSignatures: signatures,
		From:               from,
		To:                 to,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching announcements: %w", err)
	}

	calc := delay.NewCalculator(j.stations.LookupName, j.reasonCodes.Snapshot(ctx))

	var delays []delay.StationDelay
	if m.IsRoute() {
		delays = calc.RouteDelays(m.StationSignature, *m.DestinationSignature, m.DelayThreshold, announcements)
	} else {
		delays = calc.StationDelays(m.StationSignature, m.DelayThreshold, announcements)
	}

	if m.HideBusReplacements {
		delays = delay.WithoutBusReplacements(delays)
	}
	return delays, nil
}

func (j *RunJob) recordHistory(ctx context.Context, m *monitor.Monitor, resultCount int) {
	if j.history == nil {
		return
	}

	search := history.RecordedSearch{
		StationSignature: m.StationSignature,
		StationName:      m.StationName,
		MinDelayMinutes:  m.DelayThreshold,
		ResultCount:      resultCount,
	}
	if m.IsRoute() {
		search.DestinationSignature = *m.DestinationSignature
		if m.DestinationName != nil {
			search.DestinationName = *m.DestinationName
		}
	}
	j.history.Record(ctx, m.UserID, search)
}

// recordOutcome persists the run record with a fresh context so an expired
// run context does not lose the outcome.
func (j *RunJob) recordOutcome(m *monitor.Monitor, result monitor.RunResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := j.monitors.RecordRun(ctx, m.ID, result); err != nil {
		j.logger.Error().Err(err).
			Str("monitor_id", m.ID).
			Msg("recording run outcome failed")
	}
}

func (j *RunJob) subjectFor(m *monitor.Monitor) string {
	if m.IsRoute() && m.DestinationName != nil {
		return m.StationName + " → " + *m.DestinationName
	}
	return m.StationName
}

func (j *RunJob) updateMetrics(startTime time.Time, delays int, success bool) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if success {
		j.metrics.SuccessfulRuns++
	} else {
		j.metrics.FailedRuns++
	}
	j.metrics.DelaysReported += int64(delays)
	j.metrics.LastRunAt = startTime
	j.metrics.LastRunDuration = time.Since(startTime)
}

// GetMetrics returns a copy of the current metrics.
func (j *RunJob) GetMetrics() RunMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RunMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulRuns:  j.metrics.SuccessfulRuns,
		FailedRuns:      j.metrics.FailedRuns,
		DelaysReported:  j.metrics.DelaysReported,
		Notifications:   j.metrics.Notifications,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}
