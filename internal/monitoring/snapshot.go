package monitoring

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/cleancity/cleancity-be/internal/services"
)

// Snapshotter periodically computes report statistics, logs them and
// pushes them to the live event feed for admin dashboards.
type Snapshotter struct {
	reportSvc services.ReportServiceProvider
	hub       services.Broadcaster
	schedule  cron.Schedule
	nextRun   time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewSnapshotter creates a snapshot job from a standard cron expression.
// Returns the parse error for invalid expressions.
func NewSnapshotter(reportSvc services.ReportServiceProvider, hub services.Broadcaster, cronExpr string) (*Snapshotter, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &Snapshotter{
		reportSvc: reportSvc,
		hub:       hub,
		schedule:  schedule,
		nextRun:   schedule.Next(time.Now()),
		done:      make(chan bool),
	}, nil
}

// Run starts the snapshotter's ticking loop.
func (s *Snapshotter) Run() {
	log.Info().Time("next_run", s.nextRun).Msg("Starting stats snapshot job...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping stats snapshot job.")
			return
		case now := <-s.ticker.C:
			if now.After(s.nextRun) {
				s.snapshot()
				s.nextRun = s.schedule.Next(now)
			}
		}
	}
}

// Stop halts the snapshotter.
func (s *Snapshotter) Stop() {
	s.done <- true
}

func (s *Snapshotter) snapshot() {
	stats, err := s.reportSvc.Stats()
	if err != nil {
		log.Error().Err(err).Msg("Stats snapshot failed")
		return
	}

	log.Info().
		Int("total", stats.Total).
		Int("pending", stats.Pending).
		Int("in_progress", stats.InProgress).
		Int("resolved", stats.Resolved).
		Msg("Report stats snapshot")

	if s.hub != nil {
		s.hub.BroadcastReportEvent("stats_snapshot", "", stats)
	}
}
