package rbac

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

func newHandlerFixture(t *testing.T) (*mockRepository, http.Handler) {
	t.Helper()
	repo := newMockRepository()
	service := NewService(repo)
	handler := NewPermissionsHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), service, nil)
	r := chi.NewRouter()
	handler.MountRoutes(r, Middleware{Service: service})
	return repo, r
}

func asIdentity(req *http.Request, id shared.Identity) *http.Request {
	return req.WithContext(shared.ContextWithIdentity(req.Context(), id))
}

func TestListGroupedResponseShape(t *testing.T) {
	repo, router := newHandlerFixture(t)
	repo.addPermission(1, "orders.view", "orders")
	repo.addPermission(2, "orders.edit", "orders")
	repo.addPermission(3, "admin.access_panel", "admin_panel")

	req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Categories []struct {
			Category    string `json:"category"`
			Label       string `json:"label"`
			Permissions []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"permissions"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Categories, 2)
	assert.Equal(t, "admin_panel", body.Categories[0].Category)
	assert.Equal(t, "Admin Panel", body.Categories[0].Label)
	assert.Equal(t, "orders", body.Categories[1].Category)
	require.Len(t, body.Categories[1].Permissions, 2)
	assert.Equal(t, "orders.edit", body.Categories[1].Permissions[0].Name)
	assert.Equal(t, "orders.view", body.Categories[1].Permissions[1].Name)
}

func TestListForUserEmptyIsJSONArray(t *testing.T) {
	_, router := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/users/7/permissions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"permission_ids":[]}`, rec.Body.String())
}

func TestSetForUser(t *testing.T) {
	repo, router := newHandlerFixture(t)
	repo.addPermission(10, "orders.view", "orders")
	repo.addPermission(11, "orders.edit", "orders")

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/users/7/permissions", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asIdentity(req, admin()))
		return rec
	}

	rec := put(`{"permission_ids":[10,11]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ids, err := NewService(repo).ListForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 11}, ids)

	// The empty set is a valid full replacement.
	rec = put(`{"permission_ids":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	ids, err = NewService(repo).ListForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetForUserValidation(t *testing.T) {
	_, router := newHandlerFixture(t)

	cases := map[string]string{
		"missing field": `{}`,
		"invalid json":  `{"permission_ids":`,
		"zero id":       `{"permission_ids":[0]}`,
		"negative id":   `{"permission_ids":[-3]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/users/7/permissions", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, asIdentity(req, admin()))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPut, "/users/not-a-number/permissions", strings.NewReader(`{"permission_ids":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, asIdentity(req, admin()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetForUserNeedsManagePermission(t *testing.T) {
	repo, router := newHandlerFixture(t)
	repo.addPermission(1, shared.PermAdminPermissions, "admin")
	repo.addPermission(10, "orders.view", "orders")

	put := func(id shared.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/users/7/permissions", strings.NewReader(`{"permission_ids":[10]}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, asIdentity(req, id))
		return rec
	}

	// A panel-only operator cannot rewrite grant sets.
	rec := put(user(3))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, repo.grants[7])

	repo.grants[3] = map[int64]struct{}{1: {}}
	rec = put(user(3))
	assert.Equal(t, http.StatusOK, rec.Code)

	ids, err := NewService(repo).ListForUser(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10}, ids)
}
