// Package scheduler provides cron-based scheduling for the tracking
// refresh cycle and the snapshot retention purge.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shelfwatch/backend/internal/service"
)

// batchRunner is the slice of BatchService the scheduler needs.
type batchRunner interface {
	RefreshAllActive(ctx context.Context) (*service.BatchResult, error)
}

// snapshotPurger deletes snapshots older than a cutoff.
type snapshotPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the scheduler configuration
type Config struct {
	// Schedule is a cron expression for the refresh cycle (e.g., "0 */6 * * *")
	Schedule string
	// Timeout is the maximum duration for a complete refresh cycle
	Timeout time.Duration
	// Enabled determines if the scheduler should run
	Enabled bool
	// RetentionDays is the snapshot age cutoff for the daily purge
	RetentionDays int
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Schedule:      "0 */6 * * *", // Every 6 hours
		Timeout:       15 * time.Minute,
		Enabled:       true,
		RetentionDays: 180,
	}
}

// Scheduler manages the scheduled refresh and purge jobs
type Scheduler struct {
	cron      *cron.Cron
	batch     batchRunner
	snapshots snapshotPurger
	config    Config
	logger    *slog.Logger
	refreshID cron.EntryID
}

// New creates a new Scheduler instance
func New(cfg Config, batch batchRunner, snapshots snapshotPurger, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		batch:     batch,
		snapshots: snapshots,
		config:    cfg,
		logger:    logger,
	}
}

// Start begins the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled, skipping start")
		return nil
	}

	// Convert standard cron (5 fields) to cron with seconds (6 fields)
	refreshID, err := s.cron.AddFunc("0 "+s.config.Schedule, func() {
		s.runRefreshCycle()
	})
	if err != nil {
		return err
	}
	s.refreshID = refreshID

	// Retention purge runs daily at 03:15
	if _, err := s.cron.AddFunc("0 15 3 * * *", func() {
		s.runRetentionPurge()
	}); err != nil {
		return err
	}

	s.cron.Start()

	s.logger.Info("Scheduler started",
		slog.String("schedule", s.config.Schedule),
		slog.Duration("timeout", s.config.Timeout),
		slog.Int("retention_days", s.config.RetentionDays),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Stopping scheduler...")
	return s.cron.Stop()
}

// RunNow triggers an immediate refresh cycle (useful for manual triggers)
func (s *Scheduler) RunNow() {
	go s.runRefreshCycle()
}

// runRefreshCycle refreshes every active product
func (s *Scheduler) runRefreshCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	s.logger.Info("Starting scheduled refresh cycle",
		slog.Time("start_time", startTime),
	)

	result, err := s.batch.RefreshAllActive(ctx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Refresh cycle failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return
	}

	s.logger.Info("Refresh cycle completed",
		slog.Int("success", result.Success),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", duration),
	)
}

// runRetentionPurge drops snapshots past the retention cutoff. Alerts and
// projections are untouched.
func (s *Scheduler) runRetentionPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	purged, err := s.snapshots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("Retention purge failed",
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("Retention purge completed",
		slog.Int64("snapshots_purged", purged),
		slog.Time("cutoff", cutoff),
	)
}

// GetNextRunTime returns the next scheduled refresh time
func (s *Scheduler) GetNextRunTime() time.Time {
	if s.refreshID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.refreshID).Next
}

// GetLastRunTime returns the last refresh run time
func (s *Scheduler) GetLastRunTime() time.Time {
	if s.refreshID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.refreshID).Prev
}

// IsRunning returns true if the scheduler is running
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
