package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLicenseExpireSweep deactivates license records past their expiry.
	TaskLicenseExpireSweep = "license:expire_sweep"
	// TaskAuthPurgeSessions removes orphaned refresh-token sessions.
	TaskAuthPurgeSessions = "auth:purge_sessions"
)

// LicenseSweeper retires expired license records.
type LicenseSweeper interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// SessionPurger removes stale refresh-token sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// NewLicenseExpireSweepTask constructs the sweep task.
func NewLicenseExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskLicenseExpireSweep, nil)
}

// NewAuthPurgeSessionsTask constructs the purge task.
func NewAuthPurgeSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskAuthPurgeSessions, nil)
}

// HandleLicenseExpireSweep processes TaskLicenseExpireSweep tasks.
func HandleLicenseExpireSweep(sweeper LicenseSweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		retired, err := sweeper.DeactivateExpired(ctx)
		if err != nil {
			return err
		}
		if logger != nil && retired > 0 {
			logger.Info("retired expired licenses", slog.Int64("count", retired))
		}
		return nil
	}
}

// HandleAuthPurgeSessions processes TaskAuthPurgeSessions tasks.
func HandleAuthPurgeSessions(purger SessionPurger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		purged, err := purger.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if logger != nil && purged > 0 {
			logger.Info("purged stale sessions", slog.Int("count", purged))
		}
		return nil
	}
}
