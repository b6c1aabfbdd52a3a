package orders

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

const orderColumns = `id, customer_id, reference, amount, status, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Reference, &o.Amount, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns all orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Get fetches an order by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// Create inserts an order.
func (r *Repository) Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error) {
	return scanOrder(r.pool.QueryRow(ctx,
		`INSERT INTO orders (customer_id, reference, amount, status, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+orderColumns,
		req.CustomerID, req.Reference, req.Amount, StatusOpen, createdBy))
}

// Update applies partial changes to an order.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateOrderRequest) (*Order, error) {
	return scanOrder(r.pool.QueryRow(ctx,
		`UPDATE orders SET
		   reference = COALESCE($2, reference),
		   amount = COALESCE($3, amount),
		   status = COALESCE($4, status),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING `+orderColumns,
		id, req.Reference, req.Amount, req.Status))
}

// Delete removes an order. Returns shared.ErrNotFound if nothing was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
