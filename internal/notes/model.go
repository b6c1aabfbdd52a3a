package notes

import "time"

type Note struct {
	ID         int64     `json:"id" db:"id"`
	Subject    string    `json:"subject" db:"subject"`
	Body       string    `json:"body" db:"body"`
	CustomerID *int64    `json:"customer_id,omitempty" db:"customer_id"`
	CreatedBy  int64     `json:"created_by" db:"created_by"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type CreateNoteRequest struct {
	Subject    string `json:"subject" validate:"required,max=200"`
	Body       string `json:"body" validate:"required"`
	CustomerID *int64 `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
}
