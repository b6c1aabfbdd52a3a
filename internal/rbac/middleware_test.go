package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

type recordedDecisions struct {
	outcomes []string
}

func (r *recordedDecisions) AuthzDecision(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newGateFixture(t *testing.T) (*mockRepository, Middleware, *recordedDecisions) {
	t.Helper()
	repo := newMockRepository()
	metrics := &recordedDecisions{}
	mw := Middleware{Service: NewService(repo), Metrics: metrics}
	return repo, mw, metrics
}

func gateRequest(t *testing.T, mw func(http.Handler) http.Handler, id *shared.Identity) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodDelete, "/orders/1", nil)
	if id != nil {
		req = req.WithContext(shared.ContextWithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func TestRequireWithoutIdentity(t *testing.T) {
	_, mw, metrics := newGateFixture(t)

	rec, reached := gateRequest(t, mw.Require("orders.delete"), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, []string{"unauthenticated"}, metrics.outcomes)
}

func TestRequireDeniedRequestNeverReachesHandler(t *testing.T) {
	repo, mw, metrics := newGateFixture(t)
	repo.addPermission(10, "orders.delete", "orders")

	id := user(2)
	rec, reached := gateRequest(t, mw.Require("orders.delete"), &id)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, []string{"forbidden"}, metrics.outcomes)
}

func TestRequireUnknownPermissionIsServerError(t *testing.T) {
	_, mw, metrics := newGateFixture(t)

	id := user(2)
	rec, reached := gateRequest(t, mw.Require("orders.delete"), &id)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, reached)
	assert.Equal(t, []string{"misconfigured"}, metrics.outcomes)
}

func TestRequireGrantedRequestReachesHandler(t *testing.T) {
	repo, mw, _ := newGateFixture(t)
	repo.addPermission(10, "orders.delete", "orders")
	repo.grants[2] = map[int64]struct{}{10: {}}

	id := user(2)
	rec, reached := gateRequest(t, mw.Require("orders.delete"), &id)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
}

func TestRequireAdminAllowsAdminRole(t *testing.T) {
	_, mw, metrics := newGateFixture(t)

	id := admin()
	rec, reached := gateRequest(t, mw.RequireAdmin, &id)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, []string{"allowed"}, metrics.outcomes)
}

func TestRequireAdminRejectsRegularUser(t *testing.T) {
	repo, mw, _ := newGateFixture(t)
	repo.addPermission(1, shared.PermAdminPanel, "admin")

	id := user(2)
	rec, reached := gateRequest(t, mw.RequireAdmin, &id)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, reached)
}
