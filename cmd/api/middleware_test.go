package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotelier/internal/audit"
	"hotelier/internal/auth"
	"hotelier/internal/authz"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver map[string]*authz.Identity

func (s stubResolver) Resolve(_ context.Context, header string) (*authz.Identity, error) {
	token, err := auth.BearerToken(header)
	if err != nil {
		return nil, err
	}
	id, ok := s[token]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	if id.Blocked {
		return id, auth.ErrBlocked
	}
	return id, nil
}

type recordedEvents struct {
	events []audit.Event
	err    error
}

func (r *recordedEvents) recorder() audit.Recorder {
	return audit.RecorderFunc(func(_ context.Context, ev audit.Event) error {
		r.events = append(r.events, ev)
		return r.err
	})
}

func activeIdentity(id int64, role authz.Role, codes ...authz.Code) *authz.Identity {
	return &authz.Identity{
		ID:               id,
		Role:             role,
		Permissions:      codes,
		EmailVerified:    true,
		ProfileCompleted: true,
	}
}

func newTestApplication(t *testing.T, rec *recordedEvents, policy authz.FunnelPolicy) (*application, http.Handler) {
	t.Helper()

	app := &application{
		logger:   zap.NewNop().Sugar(),
		registry: authz.DefaultRegistry(),
		guard:    authz.NewGuard(policy),
		audit:    rec.recorder(),
		resolver: stubResolver{
			"admin":      activeIdentity(1, authz.RoleAdmin),
			"manager":    activeIdentity(2, authz.RoleHotelManager, authz.PermRoomsView),
			"viewer":     activeIdentity(3, authz.RoleCityAgent, authz.PermRoomsView, authz.PermRoomsCreate),
			"unverified": {ID: 4, Role: authz.RoleOwner, Permissions: []authz.Code{authz.PermRoomsView}},
			"blocked":    {ID: 5, Role: authz.RoleOwner, Blocked: true, EmailVerified: true, ProfileCompleted: true},
			"noprofile":  {ID: 6, Role: authz.RoleOwner, Permissions: []authz.Code{authz.PermRoomsView}, EmailVerified: true},
			"owner":      activeIdentity(7, authz.RoleOwner),
		},
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		d, _ := decisionFromContext(r)
		_ = app.jsonResponse(w, http.StatusOK, map[string]string{"outcome": d.Outcome.String()})
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(app.AuthTokenMiddleware)
		r.Get("/me", ok)
		r.With(app.requirePermissions(app.registry.MustRequire(authz.PermRoomsView))).Get("/rooms", ok)
		r.With(app.requirePermissions(app.registry.MustRequire(authz.PermRoomsView, authz.PermRoomsCreate))).Post("/rooms", ok)
		r.With(app.requireRoles(authz.RoleAdmin, authz.RoleOwner, authz.RoleHotelManager)).Get("/room-categories", ok)
	})
	return app, r
}

func do(t *testing.T, h http.Handler, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestAuthTokenMiddleware(t *testing.T) {
	t.Run("missing token is 401 and audited without actor", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, msgNotAuthenticated, body["message_code"])

		require.Len(t, rec.events, 1)
		assert.Nil(t, rec.events[0].ActorID)
		assert.Equal(t, audit.ActionAccessDenied, rec.events[0].Action)
		assert.Equal(t, audit.TypeSecurity, rec.events[0].Type)
		assert.Equal(t, http.MethodGet, rec.events[0].Details.Method)
	})

	t.Run("unknown token is 401", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, _ := do(t, h, http.MethodGet, "/me", "nobody")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("blocked account is rejected", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/me", "blocked")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgAccountBlocked, body["message_code"])
		require.Len(t, rec.events, 1)
		require.NotNil(t, rec.events[0].ActorID)
		assert.Equal(t, int64(5), *rec.events[0].ActorID)
	})

	t.Run("mid-funnel identity reaches ungated routes", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, _ := do(t, h, http.MethodGet, "/me", "unverified")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rec.events)
	})
}

func TestRequirePermissions(t *testing.T) {
	t.Run("holder passes", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/rooms", "manager")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "passed", body["data"].(map[string]any)["outcome"])
		assert.Empty(t, rec.events)
	})

	t.Run("missing code is 403 and audited", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodPost, "/rooms", "manager")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgInsufficientPermission, body["message_code"])

		require.Len(t, rec.events, 1)
		ev := rec.events[0]
		require.NotNil(t, ev.ActorID)
		assert.Equal(t, int64(2), *ev.ActorID)
		assert.Equal(t, []int{8001, 8002}, ev.Details.Required)
		assert.Equal(t, []int{8002}, ev.Details.Missing)
		assert.Equal(t, "/rooms", ev.Details.Route)
		assert.Equal(t, http.MethodPost, ev.Details.Method)
	})

	t.Run("codes decide regardless of role", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		// a low role holding both codes passes
		rr, _ := do(t, h, http.MethodPost, "/rooms", "viewer")
		assert.Equal(t, http.StatusOK, rr.Code)

		// a senior role without them does not
		rr, body := do(t, h, http.MethodGet, "/rooms", "owner")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgInsufficientPermission, body["message_code"])
	})

	t.Run("admin bypasses with an empty permission set", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodPost, "/rooms", "admin")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "bypassed", body["data"].(map[string]any)["outcome"])
	})

	t.Run("unverified email is 403 with verification code", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/rooms", "unverified")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgVerificationRequired, body["message_code"])
		require.Len(t, rec.events, 1)
	})

	t.Run("incomplete profile is 403 with profile code", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/rooms", "noprofile")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgProfileRequired, body["message_code"])
	})

	t.Run("funnel ignored by policy", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelIgnore)

		rr, _ := do(t, h, http.MethodGet, "/rooms", "unverified")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("recorder failure does not change the response", func(t *testing.T) {
		rec := &recordedEvents{err: errors.New("queue down")}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodPost, "/rooms", "manager")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgInsufficientPermission, body["message_code"])
		assert.Len(t, rec.events, 1)
	})
}

func TestRequireRoles(t *testing.T) {
	rec := &recordedEvents{}
	_, h := newTestApplication(t, rec, authz.FunnelEnforce)

	rr, _ := do(t, h, http.MethodGet, "/room-categories", "manager")
	assert.Equal(t, http.StatusOK, rr.Code)

	// permissions are irrelevant to role gates
	rr, body := do(t, h, http.MethodGet, "/room-categories", "viewer")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, msgRoleNotAllowed, body["message_code"])

	require.Len(t, rec.events, 1)
	assert.Equal(t, []string{"admin", "owner", "hotelManager"}, rec.events[0].Details.Roles)
	assert.Equal(t, "/room-categories", rec.events[0].Details.Route)
}

func TestRequireRolesAppliesFunnelPolicy(t *testing.T) {
	t.Run("unverified listed role is 403", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/room-categories", "unverified")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgVerificationRequired, body["message_code"])
		require.Len(t, rec.events, 1)
		assert.Equal(t, int64(4), *rec.events[0].ActorID)
	})

	t.Run("incomplete profile listed role is 403", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelEnforce)

		rr, body := do(t, h, http.MethodGet, "/room-categories", "noprofile")
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgProfileRequired, body["message_code"])
	})

	t.Run("ignore policy admits listed role", func(t *testing.T) {
		rec := &recordedEvents{}
		_, h := newTestApplication(t, rec, authz.FunnelIgnore)

		rr, _ := do(t, h, http.MethodGet, "/room-categories", "unverified")
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestBasicAuthMiddleware(t *testing.T) {
	app := &application{logger: zap.NewNop().Sugar()}
	app.config.Auth.Basic = basicConfig{User: "ops", Pass: "secret"}

	h := app.BasicAuthMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		user, pass string
		set        bool
		want       int
	}{
		{name: "valid", user: "ops", pass: "secret", set: true, want: http.StatusNoContent},
		{name: "wrong password", user: "ops", pass: "nope", set: true, want: http.StatusUnauthorized},
		{name: "missing header", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
			if tt.set {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
