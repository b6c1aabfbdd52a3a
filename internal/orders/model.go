package orders

import "time"

const (
	StatusOpen      = "OPEN"
	StatusFulfilled = "FULFILLED"
	StatusCancelled = "CANCELLED"
)

type Order struct {
	ID         int64     `json:"id" db:"id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	Reference  string    `json:"reference" db:"reference"`
	Amount     float64   `json:"amount" db:"amount"`
	Status     string    `json:"status" db:"status"`
	CreatedBy  int64     `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CreateOrderRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required,gt=0"`
	Reference  string  `json:"reference" validate:"required,max=100"`
	Amount     float64 `json:"amount" validate:"gte=0"`
}

type UpdateOrderRequest struct {
	Reference *string  `json:"reference,omitempty" validate:"omitempty,max=100"`
	Amount    *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Status    *string  `json:"status,omitempty" validate:"omitempty,oneof=OPEN FULFILLED CANCELLED"`
}
