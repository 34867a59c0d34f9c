package credential

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher proactively renews access tokens on a cron schedule so
// requests rarely pay the refresh latency inline. It also sweeps expired
// cooldown entries.
type Refresher struct {
	manager  *Manager
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewRefresher builds a Refresher. schedule is a standard five-field
// cron expression; it defaults to every five minutes.
func NewRefresher(manager *Manager, schedule string, logger *slog.Logger) *Refresher {
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		manager:  manager,
		schedule: schedule,
		logger:   logger.With("component", "credential-refresher"),
	}
}

// Start registers the sweep job and starts the scheduler.
func (r *Refresher) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.sweep); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	r.logger.Info("background refresher started", "schedule", r.schedule)
	return nil
}

// Stop halts the scheduler, waiting for a running sweep to finish.
func (r *Refresher) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

// sweep refreshes every enabled credential whose token is inside the
// refresh margin. Failures are already logged and recorded by the
// manager; the sweep moves on.
func (r *Refresher) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r.manager.Cooldowns().CleanupExpired()

	for _, c := range r.manager.Store().List() {
		if c.Disabled || !c.TokenExpired(r.manager.cfg.RefreshMargin) {
			continue
		}
		if r.manager.Cooldowns().Remaining(c.ID) > 0 {
			continue
		}
		if err := r.manager.Refresh(ctx, c.ID); err != nil {
			r.logger.Debug("background refresh failed", "id", c.ID, "error", err)
		}
	}
}
