package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedesk/pulsedesk/internal/platform/db"
	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Repository defines persistence operations for permissions and grants.
type Repository interface {
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListUserPermissionIDs(ctx context.Context, userID int64) ([]int64, error)
	HasUserPermission(ctx context.Context, userID, permissionID int64) (bool, error)
	ReplaceUserPermissions(ctx context.Context, userID int64, permissionIDs []int64) error
	MissingNames(ctx context.Context, names []string) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetPermissionByName resolves a permission definition by its unique name.
func (r *PGRepository) GetPermissionByName(ctx context.Context, name string) (*Permission, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, category FROM permissions WHERE name = $1`, name)
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &perm, nil
}

// ListPermissions returns all permissions ordered by category then name.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, category FROM permissions ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description, &perm.Category); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// ListUserPermissionIDs returns the ids of permissions granted to the user.
func (r *PGRepository) ListUserPermissionIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_id FROM user_permissions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// HasUserPermission reports whether the grant row exists.
func (r *PGRepository) HasUserPermission(ctx context.Context, userID, permissionID int64) (bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_permissions WHERE user_id = $1 AND permission_id = $2)`,
		userID, permissionID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ReplaceUserPermissions swaps the user's grant set inside one transaction,
// so a concurrent reader never observes the intermediate empty state.
func (r *PGRepository) ReplaceUserPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, permissionID := range permissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_permissions (user_id, permission_id) VALUES ($1, $2)`,
				userID, permissionID); err != nil {
				if isForeignKeyViolation(err) {
					return shared.ErrNotFound
				}
				return err
			}
		}
		return nil
	})
}

// MissingNames returns which of the given permission names have no stored
// definition.
func (r *PGRepository) MissingNames(ctx context.Context, names []string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT wanted.name
		 FROM unnest($1::text[]) AS wanted(name)
		 LEFT JOIN permissions p ON p.name = wanted.name
		 WHERE p.id IS NULL
		 ORDER BY wanted.name`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var missing []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		missing = append(missing, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return missing, nil
}

var _ Repository = (*PGRepository)(nil)
