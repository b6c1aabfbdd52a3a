package license

import "time"

// Payload is the decoded content of a license key.
type Payload struct {
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	ExpiresAt    time.Time `json:"expiresAt"`
	MaxUsers     int       `json:"maxUsers"`
	Features     []string  `json:"features"`
}

// License is the persisted record of a previously validated key. The row is
// a cache of a verified decode; expiry is re-checked against the key itself
// on every validation call.
type License struct {
	ID           int64
	Key          string
	CustomerID   string
	CustomerName string
	ExpiresAt    time.Time
	MaxUsers     int
	Features     []string
	Active       bool
	CreatedAt    time.Time
}

// Validation error codes returned to callers. License validation reports
// failures as a structured result, never as a transport error.
const (
	ErrCodeInvalidKey = "invalid_key"
	ErrCodeExpired    = "expired"
)

// ValidationResult is the outcome of validating a license key.
type ValidationResult struct {
	Valid bool     `json:"valid"`
	Error string   `json:"error,omitempty"`
	Data  *Payload `json:"data,omitempty"`
}

// Status describes the currently active license.
type Status struct {
	Active       bool      `json:"active"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	MaxUsers     int       `json:"max_users,omitempty"`
	CurrentUsers int64     `json:"current_users"`
	Exceeded     bool      `json:"exceeded"`
	Features     []string  `json:"features,omitempty"`
}
