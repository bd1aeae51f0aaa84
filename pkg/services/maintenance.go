package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flarelab/storylab/pkg/cache"
	"github.com/flarelab/storylab/pkg/persistence"
)

// DefaultRunRetention is how long recipe run traces are kept.
const DefaultRunRetention = 30 * 24 * time.Hour

// Maintenance schedules periodic housekeeping: pruning old run traces and a
// full prompt-cache sweep as a safety net behind the explicit post-write
// clears.
type Maintenance struct {
	persistence persistence.Persistence
	promptCache cache.Cache
	retention   time.Duration
	logger      *slog.Logger
	cron        *cron.Cron
}

// NewMaintenance creates the maintenance scheduler.
func NewMaintenance(p persistence.Persistence, promptCache cache.Cache, retention time.Duration, logger *slog.Logger) *Maintenance {
	if retention <= 0 {
		retention = DefaultRunRetention
	}

	return &Maintenance{
		persistence: p,
		promptCache: promptCache,
		retention:   retention,
		logger:      logger.With("module", "maintenance"),
		cron:        cron.New(),
	}
}

// Start registers the jobs and starts the scheduler.
func (m *Maintenance) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc("@hourly", func() { m.PruneRuns(ctx) }); err != nil {
		return err
	}

	if _, err := m.cron.AddFunc("@every 6h", func() { m.SweepCache(ctx) }); err != nil {
		return err
	}

	m.cron.Start()
	m.logger.InfoContext(ctx, "Maintenance scheduler started", "retention", m.retention)

	return nil
}

// Stop halts the scheduler, waiting for running jobs.
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}

// PruneRuns deletes run traces older than the retention window.
func (m *Maintenance) PruneRuns(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.retention)

	pruned, err := m.persistence.Runs().PruneOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to prune recipe runs", "error", err)

		return
	}

	if pruned > 0 {
		m.logger.InfoContext(ctx, "Pruned recipe runs", "count", pruned, "cutoff", cutoff)
	}
}

// SweepCache clears the prompt cache.
func (m *Maintenance) SweepCache(ctx context.Context) {
	m.promptCache.Clear(ctx)
	m.logger.InfoContext(ctx, "Prompt cache swept")
}
