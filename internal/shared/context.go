package shared

import "context"

// Role is the coarse account role carried in tokens.
type Role string

const (
	// RoleAdmin bypasses all permission checks.
	RoleAdmin Role = "ADMIN"
	// RoleUser is subject to per-permission checks.
	RoleUser Role = "USER"
)

// Identity describes the verified caller for one request.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type identityContextKey struct{}

// ContextWithIdentity stores the verified identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
