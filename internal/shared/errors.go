package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated indicates a missing, malformed or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a valid identity without the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrPermissionNotFound indicates a permission name with no stored definition.
	// This is a deployment defect, not a caller error.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
