package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulsedesk/pulsedesk/internal/platform/httpx"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// DecisionRecorder counts authorization outcomes for observability.
type DecisionRecorder interface {
	AuthzDecision(outcome string)
}

// Middleware wires authorization checks into HTTP routes.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics DecisionRecorder
}

// Require gates a route on the named permission. The gate decides before the
// wrapped handler runs, so no entity operation executes on a denied request.
func (m Middleware) Require(permissionName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				m.record("unauthenticated")
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if err := m.Service.Authorize(r.Context(), id, permissionName); err != nil {
				m.reject(w, err, permissionName)
				return
			}
			m.record("allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route on admin panel access.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			m.record("unauthenticated")
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if err := m.Service.RequireAdminAccess(r.Context(), id); err != nil {
			m.reject(w, err, shared.PermAdminPanel)
			return
		}
		m.record("allowed")
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) reject(w http.ResponseWriter, err error, permissionName string) {
	switch {
	case errors.Is(err, shared.ErrForbidden):
		m.record("forbidden")
	case errors.Is(err, shared.ErrPermissionNotFound):
		m.record("misconfigured")
		if m.Logger != nil {
			m.Logger.Error("permission definition missing", slog.String("permission", permissionName))
		}
	default:
		m.record("error")
		if m.Logger != nil {
			m.Logger.Error("authorization check", slog.String("permission", permissionName), slog.Any("error", err))
		}
	}
	httpx.RespondError(w, err)
}

func (m Middleware) record(outcome string) {
	if m.Metrics != nil {
		m.Metrics.AuthzDecision(outcome)
	}
}
