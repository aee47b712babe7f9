package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/secunit404/railpulse/internal/monitor"
)

// Scheduler periodically scans active monitors and executes the due ones.
// A monitor stays due until a run is recorded, so a missed tick is caught
// up on the next scan.
type Scheduler struct {
	config   Config
	logger   zerolog.Logger
	monitors monitor.Repository
	job      *RunJob

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Config   Config
	Logger   zerolog.Logger
	Monitors monitor.Repository
	Job      *RunJob
}

// NewScheduler creates a new monitor scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		config:   cfg.Config.withDefaults(),
		logger:   cfg.Logger,
		monitors: cfg.Monitors,
		job:      cfg.Job,
		now:      time.Now,
	}
}

// Start runs the scan loop until the context is cancelled. A scan is
// performed immediately on start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().
		Dur("poll_interval", s.config.PollInterval).
		Int("concurrency", s.config.Concurrency).
		Msg("starting monitor scheduler")

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.Scan(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("monitor scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan executes every due monitor once, bounded by the configured
// concurrency.
func (s *Scheduler) Scan(ctx context.Context) {
	active, err := s.monitors.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("listing active monitors failed")
		return
	}

	now := s.now()
	var due []*monitor.Monitor
	for _, m := range active {
		if m.DueAt(now) {
			due = append(due, m)
		}
	}
	if len(due) == 0 {
		return
	}

	s.logger.Info().
		Int("active", len(active)).
		Int("due", len(due)).
		Msg("executing due monitors")

	work := make(chan *monitor.Monitor, len(due))
	var wg sync.WaitGroup
	for i := 0; i < s.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				// Run records its own outcome; errors are already logged.
				_ = s.job.Run(ctx, m)
			}
		}()
	}

	for _, m := range due {
		work <- m
	}
	close(work)
	wg.Wait()
}
