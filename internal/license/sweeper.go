package license

import (
	"context"
	"time"
)

// Sweeper retires expired license records without the rest of the service's
// dependencies. Used by the background worker.
type Sweeper struct {
	repo Repository
	now  func() time.Time
}

// NewSweeper constructs a Sweeper.
func NewSweeper(repo Repository) *Sweeper {
	return &Sweeper{repo: repo, now: time.Now}
}

// DeactivateExpired flips active off for rows past their expiry.
func (s *Sweeper) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}
