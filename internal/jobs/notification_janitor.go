// notification_janitor.go implements the NotificationJanitor background job, which
// periodically cancels dismissable organization notifications that have aged past
// the configured retention window. Cancelled notifications stay in the database
// for history but are never rendered again, so the cleanup is idempotent and safe
// to run on every node of a multi-instance deployment.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/telemetry"
)

// NotificationStore is the subset of the notification repository the janitor needs.
type NotificationStore interface {
	CancelOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// NotificationJanitor periodically cancels notifications past the retention window.
type NotificationJanitor struct {
	store    NotificationStore
	cfg      *config.NotificationsConfig
	interval time.Duration
	stopChan chan struct{}
}

// NewNotificationJanitor creates a new NotificationJanitor.
// cfg.JanitorIntervalHours controls how often the sweep runs (default 24h).
func NewNotificationJanitor(store NotificationStore, cfg *config.NotificationsConfig) *NotificationJanitor {
	hours := cfg.JanitorIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return &NotificationJanitor{
		store:    store,
		cfg:      cfg,
		interval: time.Duration(hours) * time.Hour,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
// It runs an initial sweep immediately, then repeats on the configured interval.
// The loop exits when ctx is cancelled or Stop() is called.
func (j *NotificationJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.Info("notification janitor started",
		"interval", j.interval,
		"retention_days", j.retentionDays())

	// Run once immediately on startup
	j.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			j.runSweep(ctx)
		case <-j.stopChan:
			slog.Info("notification janitor stopped")
			return
		case <-ctx.Done():
			slog.Info("notification janitor context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (j *NotificationJanitor) Stop() {
	close(j.stopChan)
}

func (j *NotificationJanitor) retentionDays() int {
	if j.cfg.RetentionDays <= 0 {
		return 90
	}
	return j.cfg.RetentionDays
}

// runSweep cancels notifications older than the retention window.
func (j *NotificationJanitor) runSweep(ctx context.Context) {
	cancelled, err := j.store.CancelOlderThan(ctx, j.retentionDays())
	if err != nil {
		telemetry.NotificationJanitorErrorsTotal.Inc()
		slog.Error("notification janitor: sweep failed", "error", err)
		return
	}

	if cancelled > 0 {
		telemetry.NotificationsCancelledTotal.Add(float64(cancelled))
		slog.Info("notification janitor: cancelled aged notifications", "count", cancelled)
	}
}
