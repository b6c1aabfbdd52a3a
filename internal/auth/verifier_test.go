package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

func testIdentity() shared.Identity {
	return shared.Identity{UserID: 42, Email: "pat@pulsedesk.local", Role: shared.RoleUser}
}

func newTestVerifier() *Verifier {
	return NewVerifier("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 720*time.Hour)
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	v := newTestVerifier()

	token, jti, err := v.IssueAccess(testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity(), id)

	claims, err := v.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := newTestVerifier()
	token, _, err := v.IssueAccess(testIdentity())
	require.NoError(t, err)

	v.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := newTestVerifier()
	token, _, err := v.IssueAccess(testIdentity())
	require.NoError(t, err)

	other := NewVerifier("a-different-secret", "refresh-secret-for-tests", 15*time.Minute, 720*time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestVerifyRejectsCrossClassTokens(t *testing.T) {
	v := newTestVerifier()

	refresh, _, err := v.IssueRefresh(testIdentity())
	require.NoError(t, err)
	access, _, err := v.IssueAccess(testIdentity())
	require.NoError(t, err)

	// A refresh token must never authenticate a request, and an access
	// token must never drive the refresh endpoint.
	_, err = v.VerifyAccess(refresh)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	_, err = v.VerifyRefresh(access)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := newTestVerifier()
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthenticated, "token %q", token)
	}
}
