package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

// Service wraps authentication business rules: credential verification,
// token issuance and refresh-token session lifecycle.
type Service struct {
	repo     Repository
	verifier *Verifier
	sessions *SessionStore
}

// NewService constructs a new Service.
func NewService(repo Repository, verifier *Verifier, sessions *SessionStore) *Service {
	return &Service{repo: repo, verifier: verifier, sessions: sessions}
}

// Login validates email/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return s.issuePair(ctx, shared.Identity{UserID: user.ID, Email: user.Email, Role: shared.Role(user.Role)})
}

// Refresh rotates a refresh token into a new token pair. The previous
// refresh session is revoked so a stolen token can be replayed at most once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.verifier.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	ok, err := s.sessions.RefreshExists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrUnauthenticated
	}
	if err := s.sessions.DeleteRefresh(ctx, claims.ID); err != nil {
		return nil, err
	}
	return s.issuePair(ctx, claims.Identity())
}

// Logout revokes the refresh session and denylists the presented access
// token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, accessClaims *Claims, refreshToken string) error {
	if refreshToken != "" {
		if claims, err := s.verifier.VerifyRefresh(refreshToken); err == nil {
			if err := s.sessions.DeleteRefresh(ctx, claims.ID); err != nil {
				return err
			}
		}
	}
	remaining := time.Until(accessClaims.ExpiresAt.Time)
	return s.sessions.DenyAccess(ctx, accessClaims.ID, remaining)
}

func (s *Service) issuePair(ctx context.Context, id shared.Identity) (*TokenPair, error) {
	access, _, err := s.verifier.IssueAccess(id)
	if err != nil {
		return nil, err
	}
	refresh, jti, err := s.verifier.IssueRefresh(id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveRefresh(ctx, jti, id.UserID, s.verifier.RefreshTTL()); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.verifier.AccessTTL().Seconds()),
	}, nil
}
