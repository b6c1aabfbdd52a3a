package license

import (
	"context"
	"errors"
	"time"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Gate answers named-permission authorization questions for the management
// operations. The admin role passes implicitly inside the gate; other callers
// need the license.manage grant.
type Gate interface {
	Authorize(ctx context.Context, id shared.Identity, permissionName string) error
}

// UserCounter reports the number of registered users, used for seat
// accounting in Status.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Service implements license validation, status reporting and key generation.
type Service struct {
	repo  Repository
	gate  Gate
	users UserCounter
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, gate Gate, users UserCounter) *Service {
	return &Service{repo: repo, gate: gate, users: users, now: time.Now}
}

// Validate decodes and checks a license key, registering a first-seen
// activation on success. Calling it again with the same key is idempotent.
// Decode and expiry failures never write.
func (s *Service) Validate(ctx context.Context, key string) (ValidationResult, error) {
	payload, err := Decode(key)
	if err != nil {
		return ValidationResult{Valid: false, Error: ErrCodeInvalidKey}, nil
	}
	if payload.ExpiresAt.Before(s.now()) {
		return ValidationResult{Valid: false, Error: ErrCodeExpired}, nil
	}
	if err := s.repo.InsertIfAbsent(ctx, License{
		Key:          key,
		CustomerID:   payload.CustomerID,
		CustomerName: payload.CustomerName,
		ExpiresAt:    payload.ExpiresAt,
		MaxUsers:     payload.MaxUsers,
		Features:     payload.Features,
	}); err != nil {
		return ValidationResult{}, err
	}
	return ValidationResult{Valid: true, Data: &payload}, nil
}

// Status reports the most recent active license along with live seat usage.
// Gated on license.manage. Seat overage is reported, not enforced.
func (s *Service) Status(ctx context.Context, id shared.Identity) (*Status, error) {
	if err := s.gate.Authorize(ctx, id, shared.PermLicenseManage); err != nil {
		return nil, err
	}
	current, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	lic, err := s.repo.LatestActive(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &Status{Active: false, CurrentUsers: current}, nil
		}
		return nil, err
	}
	return &Status{
		Active:       true,
		CustomerID:   lic.CustomerID,
		CustomerName: lic.CustomerName,
		ExpiresAt:    lic.ExpiresAt,
		MaxUsers:     lic.MaxUsers,
		CurrentUsers: current,
		Exceeded:     lic.MaxUsers > 0 && current > int64(lic.MaxUsers),
		Features:     lic.Features,
	}, nil
}

// Generate encodes a payload into a fresh key. Gated on license.manage.
// Nothing is persisted; the key registers itself on first successful Validate.
func (s *Service) Generate(ctx context.Context, id shared.Identity, payload Payload) (string, error) {
	if err := s.gate.Authorize(ctx, id, shared.PermLicenseManage); err != nil {
		return "", err
	}
	return Encode(payload)
}

// DeactivateExpired retires active rows whose expiry has passed. Driven by
// the background sweep; validation never trusts the row for expiry anyway.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}
