package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulsedesk/pulsedesk/internal/app"
	"github.com/pulsedesk/pulsedesk/internal/audit"
	"github.com/pulsedesk/pulsedesk/internal/auth"
	"github.com/pulsedesk/pulsedesk/internal/customers"
	"github.com/pulsedesk/pulsedesk/internal/license"
	"github.com/pulsedesk/pulsedesk/internal/notes"
	"github.com/pulsedesk/pulsedesk/internal/observability"
	"github.com/pulsedesk/pulsedesk/internal/orders"
	"github.com/pulsedesk/pulsedesk/internal/platform/cache"
	"github.com/pulsedesk/pulsedesk/internal/platform/db"
	"github.com/pulsedesk/pulsedesk/internal/rbac"
	"github.com/pulsedesk/pulsedesk/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	verifier := auth.NewVerifier(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessions := auth.NewSessionStore(redisClient)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, verifier, sessions)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Verifier: verifier, Sessions: sessions, Logger: logger}

	metrics := observability.NewMetrics()

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo)
	if err := rbacService.VerifyRegistered(ctx); err != nil {
		logger.Error("permission registry check", slog.Any("error", err))
		os.Exit(1)
	}
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger, Metrics: metrics}

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService)

	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, auditService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	licenseRepo := license.NewRepository(pool)
	licenseService := license.NewService(licenseRepo, rbacService, usersService)
	licenseHandler := license.NewHandler(logger, licenseService, auditService)

	customersHandler := customers.NewHandler(logger, customers.NewService(customers.NewRepository(pool)))
	ordersHandler := orders.NewHandler(logger, orders.NewService(orders.NewRepository(pool)))
	notesHandler := notes.NewHandler(logger, notes.NewRepository(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthMiddleware:     authMiddleware,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        authHandler,
		AuditHandler:       auditHandler,
		PermissionsHandler: permissionsHandler,
		LicenseHandler:     licenseHandler,
		UsersHandler:       usersHandler,
		CustomersHandler:   customersHandler,
		OrdersHandler:      ordersHandler,
		NotesHandler:       notesHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
