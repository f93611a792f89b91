// Package jobs runs the service's scheduled maintenance.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SlotRepairer is the part of the coordinator the repair job drives.
type SlotRepairer interface {
	Today() time.Time
	RepairRange(ctx context.Context, from time.Time, days int) (int, error)
}

type RepairConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	Days     int
	Timeout  time.Duration
	Location *time.Location
}

// Scheduler rebuilds upcoming slot boards from the ledger on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	repairer SlotRepairer
	logger   *slog.Logger
	cfg      RepairConfig
}

func NewScheduler(repairer SlotRepairer, logger *slog.Logger, cfg RepairConfig) (*Scheduler, error) {
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		repairer: repairer,
		logger:   logger,
		cfg:      cfg,
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, func() { s.RunRepair(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid SLOT_REPAIR_SCHEDULE %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("slot repair scheduled", "schedule", s.cfg.Schedule, "days", s.cfg.Days)
	s.cron.Start()
}

// Stop prevents new runs and waits for a running one until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunRepair repairs today and the following days once.
func (s *Scheduler) RunRepair(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	n, err := s.repairer.RepairRange(ctx, s.repairer.Today(), s.cfg.Days)
	if err != nil {
		s.logger.Error("slot repair incomplete", "repaired", n, "err", err)
		return
	}
	s.logger.Info("slot repair finished", "repaired", n, "duration_ms", time.Since(start).Milliseconds())
}
