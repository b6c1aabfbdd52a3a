package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Service answers authorization questions and manages per-user grants.
//
// Callers of the admin operations (ListGroupedByCategory, ListForUser,
// SetForUser) are expected to have already gated the request with
// RequireAdminAccess; the operations themselves trust the caller.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authorize decides whether the identity may perform the named action.
//
// The admin role short-circuits without any storage read, so the admin
// account is never locked out by incomplete permission seeding. A missing
// permission definition is reported as shared.ErrPermissionNotFound and maps
// to a server-side configuration error, never a 403.
func (s *Service) Authorize(ctx context.Context, id shared.Identity, permissionName string) error {
	if id.IsAdmin() {
		return nil
	}
	perm, err := s.repo.GetPermissionByName(ctx, permissionName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: %s", shared.ErrPermissionNotFound, permissionName)
		}
		return err
	}
	granted, err := s.repo.HasUserPermission(ctx, id.UserID, perm.ID)
	if err != nil {
		return err
	}
	if !granted {
		return shared.ErrForbidden
	}
	return nil
}

// RequireAdminAccess gates the admin panel: the admin role or an explicit
// admin.access_panel grant passes, everything else is forbidden.
func (s *Service) RequireAdminAccess(ctx context.Context, id shared.Identity) error {
	if id.IsAdmin() {
		return nil
	}
	err := s.Authorize(ctx, id, shared.PermAdminPanel)
	if errors.Is(err, shared.ErrPermissionNotFound) {
		return shared.ErrForbidden
	}
	return err
}

// VerifyRegistered checks every permission name the routes reference against
// the permissions table. Run at startup so a missing seed fails the process
// before it serves traffic.
func (s *Service) VerifyRegistered(ctx context.Context) error {
	missing, err := s.repo.MissingNames(ctx, shared.RegisteredPermissions())
	if err != nil {
		return fmt.Errorf("rbac: verify registered permissions: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("rbac: %w: unseeded permissions %v", shared.ErrPermissionNotFound, missing)
	}
	return nil
}

// ListGroupedByCategory returns all permissions grouped by category, with
// categories and permissions both in ascending name order.
func (s *Service) ListGroupedByCategory(ctx context.Context) ([]CategoryGroup, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]Permission)
	for _, perm := range perms {
		byCategory[perm.Category] = append(byCategory[perm.Category], perm)
	}
	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	groups := make([]CategoryGroup, 0, len(categories))
	for _, category := range categories {
		groups = append(groups, CategoryGroup{Category: category, Permissions: byCategory[category]})
	}
	return groups, nil
}

// ListForUser returns the permission ids granted to the user.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.ListUserPermissionIDs(ctx, userID)
}

// SetForUser replaces the user's grant set. Duplicate ids in the input are
// deduplicated; the replace is all-or-nothing.
func (s *Service) SetForUser(ctx context.Context, userID int64, permissionIDs []int64) error {
	seen := make(map[int64]struct{}, len(permissionIDs))
	deduped := make([]int64, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return s.repo.ReplaceUserPermissions(ctx, userID, deduped)
}
