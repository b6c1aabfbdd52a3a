package rbac

import "time"

// Permission represents an atomic capability that can be granted to a user.
// Rows are seeded reference data and read-only at runtime.
type Permission struct {
	ID          int64
	Name        string
	Description string
	Category    string
}

// UserPermission links a user to a granted permission.
type UserPermission struct {
	UserID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// CategoryGroup is one category's permissions, ordered by name.
type CategoryGroup struct {
	Category    string
	Permissions []Permission
}
