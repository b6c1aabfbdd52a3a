package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedesk/pulsedesk/internal/shared"
)

type decodeTarget struct {
	PermissionIDs []int64 `json:"permission_ids"`
}

func decodeRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/users/7/permissions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSON(t *testing.T) {
	var target decodeTarget
	require.NoError(t, DecodeJSON(decodeRequest(`{"permission_ids":[10,11]}`), &target))
	assert.Equal(t, []int64{10, 11}, target.PermissionIDs)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var target decodeTarget
	err := DecodeJSON(decodeRequest(`{"permision_ids":[10]}`), &target)
	assert.Error(t, err)
}

func TestDecodeJSONRejectsOversizedBody(t *testing.T) {
	body := `{"permission_ids":[` + strings.Repeat("1,", maxBodyBytes) + `1]}`
	var target decodeTarget
	err := DecodeJSON(decodeRequest(body), &target)
	assert.Error(t, err)
}

func TestRespondErrorMapping(t *testing.T) {
	cases := map[error]int{
		shared.ErrUnauthenticated:      http.StatusUnauthorized,
		shared.ErrInvalidCredentials:   http.StatusUnauthorized,
		shared.ErrForbidden:            http.StatusForbidden,
		shared.ErrPermissionNotFound:   http.StatusInternalServerError,
		shared.ErrNotFound:             http.StatusNotFound,
		ErrDuplicate:                   http.StatusConflict,
		ErrValidation:                  http.StatusBadRequest,
		assert.AnError:                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, err)
		assert.Equal(t, want, rec.Code, "error %v", err)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}
