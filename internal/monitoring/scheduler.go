package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/blogstack/internal/config"
	"github.com/isdelr/blogstack/internal/metrics"
	"github.com/isdelr/blogstack/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const jobTimeout = 30 * time.Second

// SessionCleaner removes expired sessions.
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionCleaner
	stats    services.StatsServiceProvider
}

// NewScheduler creates a scheduler with the jobs described by cfg. An
// empty spec disables its job.
func NewScheduler(cfg config.ScheduleConfig, sessions SessionCleaner, stats services.StatsServiceProvider) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		sessions: sessions,
		stats:    stats,
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"session_cleanup", cfg.SessionCleanup, s.CleanupSessions},
		{"stats_snapshot", cfg.StatsSnapshot, s.SnapshotStats},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, s.wrap(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
		log.Info().Str("job", job.name).Str("schedule", job.spec).Msg("Scheduled job")
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		err := run(ctx)
		metrics.RecordJobRun(name, err == nil)
		if err != nil {
			log.Error().Err(err).Str("job", name).Msg("Scheduled job failed")
		}
	}
}

// Run starts the scheduler and blocks until Stop is called.
func (s *Scheduler) Run() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting background scheduler...")
	s.cron.Run()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

// CleanupSessions deletes expired sessions.
func (s *Scheduler) CleanupSessions(ctx context.Context) error {
	n, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Expired sessions removed")
	}
	return nil
}

// SnapshotStats logs the current row totals.
func (s *Scheduler) SnapshotStats(ctx context.Context) error {
	counts, err := s.stats.Counts(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Int("users", counts.Users).
		Int("posts", counts.Posts).
		Int("comments", counts.Comments).
		Msg("Stats snapshot")
	return nil
}
