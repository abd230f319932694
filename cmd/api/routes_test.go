package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"hotelier/internal/authz"
	"hotelier/internal/domain/storage"
	"hotelier/internal/domain/users"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubUsers implements the calls the account routes make; anything else
// panics through the nil embedded Store.
type stubUsers struct {
	users.Store
	byID    map[int64]*users.User
	updated []int64
	blocked []int64
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) CompleteProfile(_ context.Context, id int64, in users.ProfileUpdate) (*users.User, error) {
	return &users.User{ID: id, FirstName: in.FirstName, LastName: in.LastName, Phone: in.Phone, ProfileCompleted: true}, nil
}

func (s *stubUsers) CreateInvitation(context.Context, int64, string, string, time.Duration) error {
	return nil
}

func (s *stubUsers) DeleteRefreshToken(context.Context, int64) error {
	return nil
}

func (s *stubUsers) Update(_ context.Context, id int64, in users.UserUpdate) (*users.User, error) {
	s.updated = append(s.updated, id)
	u := *s.byID[id]
	if in.Role != nil {
		u.Role = *in.Role
	}
	return &u, nil
}

func (s *stubUsers) SetBlocked(_ context.Context, id int64, _ bool) error {
	s.blocked = append(s.blocked, id)
	return nil
}

type stubMailer struct{ sent []string }

func (m *stubMailer) Send(templateFile, _, email string, _ any) (int, error) {
	m.sent = append(m.sent, templateFile+":"+email)
	return http.StatusOK, nil
}

func newMountedApplication(t *testing.T, rec *recordedEvents) (http.Handler, *stubUsers, *stubMailer) {
	t.Helper()

	store := &stubUsers{byID: map[int64]*users.User{
		1:  {ID: 1, Email: "admin@hotelier.test", Role: authz.RoleAdmin, EmailVerified: true, ProfileCompleted: true},
		4:  {ID: 4, Email: "new@hotelier.test", Role: authz.RoleOwner},
		9:  {ID: 9, Email: "desk@hotelier.test", Role: authz.RoleHotelManager, EmailVerified: true, ProfileCompleted: true},
		11: {ID: 11, Email: "ops@hotelier.test", Role: authz.RoleAdmin, EmailVerified: true, ProfileCompleted: true},
	}}
	mail := &stubMailer{}

	app := &application{
		config: config{
			Env:         "test",
			APIURL:      "localhost:8080",
			FrontendURL: "http://localhost:5173",
			Mail:        mailConfig{Exp: time.Hour},
		},
		logger:   zap.NewNop().Sugar(),
		store:    &storage.Container{Users: store},
		mailer:   mail,
		registry: authz.DefaultRegistry(),
		guard:    authz.NewGuard(authz.FunnelEnforce),
		audit:    rec.recorder(),
		resolver: stubResolver{
			"admin":      activeIdentity(1, authz.RoleAdmin),
			"unverified": {ID: 4, Role: authz.RoleOwner},
			"noprofile":  {ID: 6, Role: authz.RoleOwner, EmailVerified: true},
			"nobody":     activeIdentity(20, authz.RoleCityAgent),
			"owner":      activeIdentity(21, authz.RoleOwner),
			"staffer": activeIdentity(22, authz.RoleHotelManager,
				authz.PermInviteUser, authz.PermManagePermissions, authz.PermUsersView, authz.PermUsersUpdate),
		},
	}

	var h http.Handler
	require.NotPanics(t, func() { h = app.mount() })
	return h, store, mail
}

func call(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

var (
	publicRoute = regexp.MustCompile(`^/v1/(health|debug/vars|swagger/\*|authentication/.*)$`)
	urlParam    = regexp.MustCompile(`\{[^}]+\}`)

	// authenticated but outside any guard
	ungatedRoutes = map[string]bool{
		"GET /v1/permissions":            true,
		"GET /v1/users/me":               true,
		"PUT /v1/users/me/profile":       true,
		"POST /v1/users/me/verification": true,
		"POST /v1/users/logout":          true,
	}
)

type route struct {
	method, pattern string
}

func (r route) key() string { return r.method + " " + r.pattern }

func (r route) path() string { return urlParam.ReplaceAllString(r.pattern, "1") }

func walkRoutes(t *testing.T, h http.Handler) []route {
	t.Helper()
	routes, ok := h.(chi.Routes)
	require.True(t, ok)

	var out []route
	err := chi.Walk(routes, func(method, pattern string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, route{method: method, pattern: pattern})
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestMountGuardsEveryRoute(t *testing.T) {
	rec := &recordedEvents{}
	h, _, _ := newMountedApplication(t, rec)

	routes := walkRoutes(t, h)
	seen := map[string]bool{}
	for _, rt := range routes {
		seen[rt.key()] = true
	}
	for key := range ungatedRoutes {
		assert.True(t, seen[key], "route %s not mounted", key)
	}
	assert.True(t, seen["PUT /v1/users/{userID}/block"])
	assert.True(t, seen["POST /v1/stays/{stayID}/checkout"])

	var guarded int
	for _, rt := range routes {
		if publicRoute.MatchString(rt.pattern) || ungatedRoutes[rt.key()] {
			continue
		}
		guarded++

		t.Run(rt.key(), func(t *testing.T) {
			rr, body := call(t, h, rt.method, rt.path(), "", "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, msgNotAuthenticated, body["message_code"])

			rr, body = call(t, h, rt.method, rt.path(), "nobody", "")
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Contains(t, []any{msgInsufficientPermission, msgRoleNotAllowed}, body["message_code"])

			rr, body = call(t, h, rt.method, rt.path(), "unverified", "")
			assert.Equal(t, http.StatusForbidden, rr.Code)
			assert.Equal(t, msgVerificationRequired, body["message_code"])
		})
	}
	assert.Greater(t, guarded, 30)
}

func TestMountUngatedRoutesAcceptMidFunnel(t *testing.T) {
	rec := &recordedEvents{}
	h, _, mail := newMountedApplication(t, rec)

	rr, _ := call(t, h, http.MethodGet, "/v1/users/me", "unverified", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = call(t, h, http.MethodPost, "/v1/users/me/verification", "unverified", "")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Len(t, mail.sent, 1)

	rr, _ = call(t, h, http.MethodPut, "/v1/users/me/profile", "noprofile",
		`{"first_name":"Ana","last_name":"Reis","phone":"+351912345678"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = call(t, h, http.MethodPost, "/v1/users/logout", "unverified", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, body := call(t, h, http.MethodGet, "/v1/permissions", "nobody", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, body["data"])

	assert.Empty(t, rec.events)
}

func TestMountRoleGatesRespectFunnel(t *testing.T) {
	rec := &recordedEvents{}
	h, store, _ := newMountedApplication(t, rec)

	rr, body := call(t, h, http.MethodGet, "/v1/room-categories/", "unverified", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, msgVerificationRequired, body["message_code"])

	// owners come from public signup and never manage accounts
	rr, body = call(t, h, http.MethodPut, "/v1/users/1/block", "owner", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, msgRoleNotAllowed, body["message_code"])
	assert.Empty(t, store.blocked)
}

func TestMountAccountInvariants(t *testing.T) {
	t.Run("unknown code on invite is 400", func(t *testing.T) {
		h, _, mail := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPost, "/v1/users/invite", "staffer",
			`{"first_name":"Rui","last_name":"Sa","email":"rui@hotelier.test","role":"cityAgent","permissions":[4001,4242]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgBadRequest, body["message_code"])
		assert.Empty(t, mail.sent)
	})

	t.Run("non-admin inviting an admin is 403", func(t *testing.T) {
		h, _, mail := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPost, "/v1/users/invite", "staffer",
			`{"first_name":"Rui","last_name":"Sa","email":"rui@hotelier.test","role":"admin"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgRoleNotAllowed, body["message_code"])
		assert.Empty(t, mail.sent)
	})

	t.Run("unknown code on permission update is 400", func(t *testing.T) {
		h, _, _ := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPut, "/v1/users/9/permissions", "staffer", `{"permissions":[9001,1234]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgBadRequest, body["message_code"])
	})

	t.Run("non-admin granting admin on update is 403", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPatch, "/v1/users/9/", "staffer", `{"role":"admin"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgRoleNotAllowed, body["message_code"])
		assert.Empty(t, store.updated)
	})

	t.Run("non-admin changing an admin is 403", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPatch, "/v1/users/1/", "staffer", `{"role":"owner"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, msgRoleNotAllowed, body["message_code"])
		assert.Empty(t, store.updated)
	})

	t.Run("non-admin updates staff", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPatch, "/v1/users/9/", "staffer", `{"role":"hotelDirector"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "hotelDirector", body["data"].(map[string]any)["role"])
		assert.Equal(t, []int64{9}, store.updated)
	})

	t.Run("admin changes another admin", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, _ := call(t, h, http.MethodPatch, "/v1/users/11/", "admin", `{"role":"owner"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []int64{11}, store.updated)
	})

	t.Run("cannot block yourself", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, body := call(t, h, http.MethodPut, "/v1/users/1/block", "admin", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, msgBadRequest, body["message_code"])
		assert.Empty(t, store.blocked)
	})

	t.Run("admin blocks staff", func(t *testing.T) {
		h, store, _ := newMountedApplication(t, &recordedEvents{})

		rr, _ := call(t, h, http.MethodPut, "/v1/users/9/block", "admin", "")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, []int64{9}, store.blocked)
	})
}

func TestCheckAdminTarget(t *testing.T) {
	store := &stubUsers{byID: map[int64]*users.User{
		1: {ID: 1, Role: authz.RoleAdmin},
		9: {ID: 9, Role: authz.RoleHotelManager},
	}}
	app := &application{logger: zap.NewNop().Sugar(), store: &storage.Container{Users: store}}

	check := func(actor *authz.Identity, target int64) (bool, int) {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), identityCtx, actor))
		rr := httptest.NewRecorder()
		ok := app.checkAdminTarget(rr, req, target)
		return ok, rr.Code
	}

	ok, code := check(activeIdentity(2, authz.RoleOwner), 1)
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, code)

	ok, _ = check(activeIdentity(2, authz.RoleOwner), 9)
	assert.True(t, ok)

	ok, _ = check(activeIdentity(3, authz.RoleAdmin), 1)
	assert.True(t, ok)

	ok, code = check(activeIdentity(2, authz.RoleOwner), 404)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, code)
}
