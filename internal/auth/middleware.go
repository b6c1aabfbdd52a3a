package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pulsedesk/pulsedesk/internal/platform/httpx"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

type claimsContextKey struct{}

// Middleware authenticates requests from the Authorization header.
type Middleware struct {
	Verifier *Verifier
	Sessions *SessionStore
	Logger   *slog.Logger
}

// Authenticate verifies the bearer token and stores the identity in the
// request context. It rejects before any handler logic runs, so no entity
// operation can execute on an unauthenticated request.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		claims, err := m.Verifier.VerifyAccess(token)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		if m.Sessions != nil {
			denied, err := m.Sessions.AccessDenied(r.Context(), claims.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("auth denylist lookup", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			if denied {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
		}
		ctx := shared.ContextWithIdentity(r.Context(), claims.Identity())
		ctx = contextWithClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
