package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes usage rows past the retention window on a cron
// schedule.
type Pruner struct {
	store     *Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewPruner builds a Pruner. schedule is a standard five-field cron
// expression; it defaults to hourly. retention defaults to 30 days.
func NewPruner(store *Store, retention time.Duration, schedule string, logger *slog.Logger) *Pruner {
	if schedule == "" {
		schedule = "0 * * * *"
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger.With("component", "usage-pruner"),
	}
}

// Start registers the prune job and starts the scheduler.
func (p *Pruner) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(p.schedule, p.run); err != nil {
		return err
	}
	c.Start()
	p.cron = c
	p.logger.Info("usage pruner started", "schedule", p.schedule, "retention", p.retention)
	return nil
}

// Stop halts the scheduler, waiting for a running prune to finish.
func (p *Pruner) Stop() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
}

func (p *Pruner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := p.store.Prune(ctx, time.Now().Add(-p.retention)); err != nil {
		p.logger.Error("usage prune failed", "error", err)
	}
}
