package notes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const noteColumns = `id, subject, body, customer_id, created_by, created_at, updated_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	if err := row.Scan(&n.ID, &n.Subject, &n.Body, &n.CustomerID, &n.CreatedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// List returns all notes, newest first.
func (r *Repository) List(ctx context.Context) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Get fetches a note by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Note, error) {
	return scanNote(r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
}

// Create inserts a note.
func (r *Repository) Create(ctx context.Context, req CreateNoteRequest, createdBy int64) (*Note, error) {
	return scanNote(r.pool.QueryRow(ctx,
		`INSERT INTO notes (subject, body, customer_id, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+noteColumns,
		req.Subject, req.Body, req.CustomerID, createdBy))
}
