package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

type mockUserRepo struct {
	users map[string]*User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

func newAuthFixture(t *testing.T) (*Service, *SessionStore, *Verifier) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &mockUserRepo{users: map[string]*User{
		"pat@pulsedesk.local": {
			ID:           42,
			Email:        "pat@pulsedesk.local",
			Name:         "Pat",
			PasswordHash: string(hash),
			Role:         string(shared.RoleUser),
			IsActive:     true,
		},
		"gone@pulsedesk.local": {
			ID:           43,
			Email:        "gone@pulsedesk.local",
			Name:         "Gone",
			PasswordHash: string(hash),
			Role:         string(shared.RoleUser),
			IsActive:     false,
		},
	}}

	verifier := newTestVerifier()
	sessions := NewSessionStore(client)
	return NewService(repo, verifier, sessions), sessions, verifier
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, sessions, verifier := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "pat@pulsedesk.local", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	id, err := verifier.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)

	claims, err := verifier.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	exists, err := sessions.RefreshExists(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "pat@pulsedesk.local", "wrong password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@pulsedesk.local", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "gone@pulsedesk.local", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, verifier := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "pat@pulsedesk.local", "correct horse")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	id, err := verifier.Verify(rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)

	// The old refresh token was consumed by the rotation.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	// The new one still works.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc, _, verifier := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "not-a-token")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)

	// Well-signed but never registered, as after a store flush.
	token, _, err := verifier.IssueRefresh(testIdentity())
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestLogoutRevokesPair(t *testing.T) {
	svc, sessions, verifier := newAuthFixture(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, "pat@pulsedesk.local", "correct horse")
	require.NoError(t, err)

	accessClaims, err := verifier.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, accessClaims, pair.RefreshToken))

	denied, err := sessions.AccessDenied(ctx, accessClaims.ID)
	require.NoError(t, err)
	assert.True(t, denied)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestPurgeExpiredRemovesOnlyPersistentKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, sessions.SaveRefresh(ctx, "with-ttl", 1, time.Hour))
	// Written without a TTL, the failure mode the purge exists for.
	require.NoError(t, client.Set(ctx, refreshKeyPrefix+"stuck", 2, 0).Err())

	purged, err := sessions.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	exists, err := sessions.RefreshExists(ctx, "with-ttl")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = sessions.RefreshExists(ctx, "stuck")
	require.NoError(t, err)
	assert.False(t, exists)
}
