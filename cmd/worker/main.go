package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/pulsedesk/pulsedesk/internal/app"
	"github.com/pulsedesk/pulsedesk/internal/auth"
	"github.com/pulsedesk/pulsedesk/internal/license"
	"github.com/pulsedesk/pulsedesk/internal/platform/cache"
	"github.com/pulsedesk/pulsedesk/internal/platform/db"
	"github.com/pulsedesk/pulsedesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	licenseRepo := license.NewRepository(pool)
	sweeper := license.NewSweeper(licenseRepo)
	sessions := auth.NewSessionStore(redisClient)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLicenseExpireSweep, Handler: jobs.HandleLicenseExpireSweep(sweeper, logger)},
			{Type: jobs.TaskAuthPurgeSessions, Handler: jobs.HandleAuthPurgeSessions(sessions, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewLicenseExpireSweepTask()},
			{Spec: "30 3 * * *", Task: jobs.NewAuthPurgeSessionsTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
