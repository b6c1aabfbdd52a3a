package license

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Repository defines persistence operations for license records.
type Repository interface {
	InsertIfAbsent(ctx context.Context, lic License) error
	LatestActive(ctx context.Context) (*License, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// InsertIfAbsent records a first-seen activation. The unique constraint on
// key makes concurrent first-time validations converge on one row; a
// conflict means someone else already created it and is not an error.
func (r *PGRepository) InsertIfAbsent(ctx context.Context, lic License) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO licenses (key, customer_id, customer_name, expires_at, max_users, features, active)
		 VALUES ($1, $2, $3, $4, $5, $6, true)
		 ON CONFLICT (key) DO NOTHING`,
		lic.Key, lic.CustomerID, lic.CustomerName, lic.ExpiresAt, lic.MaxUsers, lic.Features)
	return err
}

// LatestActive returns the most recently created active license record.
func (r *PGRepository) LatestActive(ctx context.Context) (*License, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, key, customer_id, customer_name, expires_at, max_users, features, active, created_at
		 FROM licenses WHERE active ORDER BY created_at DESC LIMIT 1`)
	var lic License
	if err := row.Scan(&lic.ID, &lic.Key, &lic.CustomerID, &lic.CustomerName, &lic.ExpiresAt,
		&lic.MaxUsers, &lic.Features, &lic.Active, &lic.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lic, nil
}

// DeactivateExpired flips active off for rows whose expiry has passed and
// returns the number of rows touched.
func (r *PGRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE licenses SET active = false WHERE active AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
