package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/pulsedesk/pulsedesk/internal/audit"
	"github.com/pulsedesk/pulsedesk/internal/auth"
	"github.com/pulsedesk/pulsedesk/internal/customers"
	"github.com/pulsedesk/pulsedesk/internal/license"
	"github.com/pulsedesk/pulsedesk/internal/notes"
	"github.com/pulsedesk/pulsedesk/internal/observability"
	"github.com/pulsedesk/pulsedesk/internal/orders"
	"github.com/pulsedesk/pulsedesk/internal/rbac"
	"github.com/pulsedesk/pulsedesk/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthMiddleware auth.Middleware
	RBACMiddleware rbac.Middleware

	AuthHandler        *auth.Handler
	AuditHandler       *audit.Handler
	PermissionsHandler *rbac.PermissionsHandler
	LicenseHandler     *license.Handler
	UsersHandler       *users.Handler
	CustomersHandler   *customers.Handler
	OrdersHandler      *orders.Handler
	NotesHandler       *notes.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with PulseDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	loginLimit, licenseLimit := 10, 30
	if params.Config != nil {
		if params.Config.LoginRateLimit > 0 {
			loginLimit = params.Config.LoginRateLimit
		}
		if params.Config.LicenseRateLimit > 0 {
			licenseLimit = params.Config.LicenseRateLimit
		}
	}

	// Public surface: credential exchange and license validation. Both are
	// reachable without a token and therefore rate limited by IP.
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(loginLimit, time.Minute))
			params.AuthHandler.MountPublicRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	r.Route("/license", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(licenseLimit, time.Minute))
			params.LicenseHandler.MountPublicRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			params.LicenseHandler.MountProtectedRoutes(r)
		})
	})

	// Everything below requires a verified identity; entity routes are
	// additionally gated per permission inside each handler's mount.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Authenticate)

		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r, params.RBACMiddleware)
		})
		r.Route("/customers", func(r chi.Router) {
			params.CustomersHandler.MountRoutes(r, params.RBACMiddleware)
		})
		r.Route("/orders", func(r chi.Router) {
			params.OrdersHandler.MountRoutes(r, params.RBACMiddleware)
		})
		r.Route("/notes", func(r chi.Router) {
			params.NotesHandler.MountRoutes(r, params.RBACMiddleware)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAdmin)
			params.PermissionsHandler.MountRoutes(r, params.RBACMiddleware)
			if params.AuditHandler != nil {
				params.AuditHandler.MountRoutes(r)
			}
		})
	})

	return r
}
