package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

type mockRepository struct {
	rows        map[string]License
	insertCalls int
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{rows: make(map[string]License), nextID: 1}
}

func (m *mockRepository) InsertIfAbsent(ctx context.Context, lic License) error {
	m.insertCalls++
	if _, ok := m.rows[lic.Key]; ok {
		return nil
	}
	lic.ID = m.nextID
	m.nextID++
	lic.Active = true
	lic.CreatedAt = time.Now()
	m.rows[lic.Key] = lic
	return nil
}

func (m *mockRepository) LatestActive(ctx context.Context) (*License, error) {
	var latest *License
	for key := range m.rows {
		lic := m.rows[key]
		if !lic.Active {
			continue
		}
		if latest == nil || lic.CreatedAt.After(latest.CreatedAt) {
			latest = &lic
		}
	}
	if latest == nil {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

func (m *mockRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for key, lic := range m.rows {
		if lic.Active && lic.ExpiresAt.Before(now) {
			lic.Active = false
			m.rows[key] = lic
			count++
		}
	}
	return count, nil
}

type stubGate struct {
	granted  map[int64]string
	lastName string
}

func (g *stubGate) Authorize(ctx context.Context, id shared.Identity, permissionName string) error {
	g.lastName = permissionName
	if id.IsAdmin() {
		return nil
	}
	if g.granted[id.UserID] == permissionName {
		return nil
	}
	return shared.ErrForbidden
}

type fixedUserCount int64

func (c fixedUserCount) Count(ctx context.Context) (int64, error) {
	return int64(c), nil
}

func newTestService(repo Repository, count int64) *Service {
	svc, _ := newTestServiceWithGate(repo, count)
	return svc
}

func newTestServiceWithGate(repo Repository, count int64) (*Service, *stubGate) {
	gate := &stubGate{granted: make(map[int64]string)}
	svc := NewService(repo, gate, fixedUserCount(count))
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc, gate
}

func mustEncode(t *testing.T, payload Payload) string {
	t.Helper()
	key, err := Encode(payload)
	require.NoError(t, err)
	return key
}

func TestValidateInvalidKey(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 1)

	result, err := svc.Validate(context.Background(), "not-a-key")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ErrCodeInvalidKey, result.Error)
	assert.Nil(t, result.Data)
	assert.Zero(t, repo.insertCalls, "invalid keys must not touch storage")
}

func TestValidateExpiredKeyWritesNothing(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 1)

	key := mustEncode(t, Payload{
		CustomerID: "c1",
		ExpiresAt:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxUsers:   5,
	})
	result, err := svc.Validate(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ErrCodeExpired, result.Error)
	assert.Zero(t, repo.insertCalls)
	assert.Empty(t, repo.rows)
}

func TestValidateRegistersFirstSeenActivation(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 3)

	key := mustEncode(t, Payload{
		CustomerID:   "c1",
		CustomerName: "Acme",
		ExpiresAt:    time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxUsers:     5,
		Features:     []string{"pro"},
	})

	result, err := svc.Validate(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Data)
	assert.Equal(t, "c1", result.Data.CustomerID)
	require.Len(t, repo.rows, 1)
	assert.True(t, repo.rows[key].Active)

	// Second validation with the same key must not create another row.
	result, err = svc.Validate(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Len(t, repo.rows, 1)
}

func TestStatusReportsLatestActive(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 7)
	admin := shared.Identity{UserID: 1, Role: shared.RoleAdmin}

	status, err := svc.Status(context.Background(), admin)
	require.NoError(t, err)
	assert.False(t, status.Active)
	assert.EqualValues(t, 7, status.CurrentUsers)

	key := mustEncode(t, Payload{
		CustomerID:   "c1",
		CustomerName: "Acme",
		ExpiresAt:    time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxUsers:     5,
		Features:     []string{"pro"},
	})
	_, err = svc.Validate(context.Background(), key)
	require.NoError(t, err)

	status, err = svc.Status(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "Acme", status.CustomerName)
	assert.Equal(t, 5, status.MaxUsers)
	assert.EqualValues(t, 7, status.CurrentUsers)
	assert.True(t, status.Exceeded, "7 users over a 5 seat license")
	assert.Equal(t, []string{"pro"}, status.Features)
}

func TestStatusRequiresManagePermission(t *testing.T) {
	svc, gate := newTestServiceWithGate(newMockRepository(), 1)
	user := shared.Identity{UserID: 2, Role: shared.RoleUser}

	_, err := svc.Status(context.Background(), user)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, shared.PermLicenseManage, gate.lastName)

	gate.granted[2] = shared.PermLicenseManage
	_, err = svc.Status(context.Background(), user)
	assert.NoError(t, err)
}

func TestGenerateRequiresManagePermission(t *testing.T) {
	svc, gate := newTestServiceWithGate(newMockRepository(), 1)
	user := shared.Identity{UserID: 2, Role: shared.RoleUser}

	_, err := svc.Generate(context.Background(), user, Payload{})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, shared.PermLicenseManage, gate.lastName)

	gate.granted[2] = shared.PermLicenseManage
	key, err := svc.Generate(context.Background(), user, Payload{
		CustomerID: "c1",
		ExpiresAt:  time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, key)
}

func TestGenerateThenValidate(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 2)
	admin := shared.Identity{UserID: 1, Role: shared.RoleAdmin}

	key, err := svc.Generate(context.Background(), admin, Payload{
		CustomerID:   "c1",
		CustomerName: "Acme",
		ExpiresAt:    time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxUsers:     5,
		Features:     []string{"pro"},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.rows, "generate must not persist anything")

	result, err := svc.Validate(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "c1", result.Data.CustomerID)
	require.Len(t, repo.rows, 1)
	assert.True(t, repo.rows[key].Active)
}

func TestSweeperDeactivatesExpiredRows(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, 1)

	expired := mustEncode(t, Payload{
		CustomerID: "old",
		ExpiresAt:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		MaxUsers:   5,
	})
	_, err := svc.Validate(context.Background(), expired)
	require.NoError(t, err)

	sweeper := NewSweeper(repo)
	sweeper.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }
	retired, err := sweeper.DeactivateExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, retired)
	assert.False(t, repo.rows[expired].Active)
}
