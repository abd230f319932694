package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotelier/internal/auth"
	"hotelier/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthzErrorResponse(t *testing.T) {
	app := &application{logger: zap.NewNop().Sugar()}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", fmt.Errorf("%w: expired", auth.ErrUnauthenticated), http.StatusUnauthorized, msgNotAuthenticated},
		{"no identity", authz.ErrNotAuthenticated, http.StatusUnauthorized, msgNotAuthenticated},
		{"blocked", auth.ErrBlocked, http.StatusForbidden, msgAccountBlocked},
		{"verification", authz.ErrVerificationRequired, http.StatusForbidden, msgVerificationRequired},
		{"profile", authz.ErrProfileIncomplete, http.StatusForbidden, msgProfileRequired},
		{"role", authz.ErrInsufficientRole, http.StatusForbidden, msgRoleNotAllowed},
		{"permission", &authz.PermissionError{Missing: []authz.Code{authz.PermRoomsCreate}}, http.StatusForbidden, msgInsufficientPermission},
		{"other", errors.New("db down"), http.StatusInternalServerError, msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.authzErrorResponse(rr, httptest.NewRequest(http.MethodGet, "/v1/rooms", nil), tt.err)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.code, body.MessageCode)
			assert.False(t, body.Success)
		})
	}
}

func TestRateLimitExceededResponse(t *testing.T) {
	app := &application{logger: zap.NewNop().Sugar()}

	rr := httptest.NewRecorder()
	app.rateLimitExceededResponse(rr, httptest.NewRequest(http.MethodPost, "/v1/authentication/token", nil), 90*time.Second)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))

	rr = httptest.NewRecorder()
	app.rateLimitExceededResponse(rr, httptest.NewRequest(http.MethodPost, "/v1/authentication/token", nil), 0)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
