package customers

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

const customerColumns = `id, name, email, phone, company, is_active, created_by, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all customers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Get fetches a customer by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}

// Create inserts a customer.
func (r *Repository) Create(ctx context.Context, req CreateCustomerRequest, createdBy int64) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, company, is_active, created_by)
		 VALUES ($1, $2, $3, $4, true, $5)
		 RETURNING `+customerColumns,
		req.Name, req.Email, req.Phone, req.Company, createdBy))
}

// Update applies partial changes to a customer.
func (r *Repository) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	return scanCustomer(r.pool.QueryRow(ctx,
		`UPDATE customers SET
		   name = COALESCE($2, name),
		   email = COALESCE($3, email),
		   phone = COALESCE($4, phone),
		   company = COALESCE($5, company),
		   is_active = COALESCE($6, is_active),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING `+customerColumns,
		id, req.Name, req.Email, req.Phone, req.Company, req.IsActive))
}
