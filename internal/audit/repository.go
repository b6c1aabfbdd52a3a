package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the audit log.
type Repository interface {
	Insert(ctx context.Context, actor, action, entity, entityID string, at time.Time) error
	TimelineWindow(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert appends one entry to the log.
func (r *PGRepository) Insert(ctx context.Context, actor, action, entity, entityID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (at, actor, action, entity, entity_id) VALUES ($1, $2, $3, $4, $5)`,
		at, actor, action, entity, entityID)
	return err
}

// TimelineWindow reads a window of entries, newest first. Empty filter values
// match everything.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters Filters, limit, offset int) ([]Entry, error) {
	var from, to *time.Time
	if !filters.From.IsZero() {
		from = &filters.From
	}
	if !filters.To.IsZero() {
		to = &filters.To
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, at, actor, action, entity, entity_id
		 FROM audit_log
		 WHERE ($1::timestamptz IS NULL OR at >= $1)
		   AND ($2::timestamptz IS NULL OR at <= $2)
		   AND ($3 = '' OR actor = $3)
		   AND ($4 = '' OR entity = $4)
		   AND ($5 = '' OR action = $5)
		 ORDER BY at DESC, id DESC
		 LIMIT $6 OFFSET $7`,
		from, to, filters.Actor, filters.Entity, filters.Action, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.At, &e.Actor, &e.Action, &e.Entity, &e.EntityID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ Repository = (*PGRepository)(nil)
