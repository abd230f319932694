package authz

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestGuard(policy FunnelPolicy) *Guard {
	return &Guard{Policy: policy, Now: func() time.Time { return fixedNow }}
}

func staff(role Role, perms ...Code) *Identity {
	return &Identity{ID: 7, Role: role, Permissions: perms, EmailVerified: true, ProfileCompleted: true}
}

func TestAuthorizePassesWhenAllRequiredHeld(t *testing.T) {
	g := newTestGuard(FunnelEnforce)

	d := g.Authorize(staff(RoleHotelManager, 8001, 8002), 8001)

	assert.Equal(t, Passed, d.Outcome)
	assert.True(t, d.Allowed())
	assert.Empty(t, d.Missing)
	assert.NoError(t, d.Err)
	assert.Equal(t, fixedNow, d.At)
}

func TestAuthorizeDeniesWithMissingCodes(t *testing.T) {
	g := newTestGuard(FunnelEnforce)

	d := g.Authorize(staff(RoleHotelManager, 8001), 8001, 8003)

	assert.Equal(t, Denied, d.Outcome)
	assert.Equal(t, []Code{8003}, d.Missing)
	assert.ErrorIs(t, d.Err, ErrInsufficientPermission)

	var perr *PermissionError
	require.True(t, errors.As(d.Err, &perr))
	assert.Equal(t, []Code{8003}, perr.Missing)
}

func TestAuthorizeAdminBypassesEvenUnregisteredCodes(t *testing.T) {
	g := newTestGuard(FunnelEnforce)
	admin := &Identity{ID: 1, Role: RoleAdmin}

	d := g.Authorize(admin, 9999)

	assert.Equal(t, Bypassed, d.Outcome)
	assert.True(t, d.Allowed())
	assert.NoError(t, d.Err)
}

func TestAuthorizeAdminIgnoresFunnel(t *testing.T) {
	g := newTestGuard(FunnelEnforce)
	admin := &Identity{ID: 1, Role: RoleAdmin, EmailVerified: false}

	assert.Equal(t, Bypassed, g.Authorize(admin, PermHotelsView).Outcome)
}

func TestAuthorizeWithoutIdentityIsNotAuthenticated(t *testing.T) {
	g := newTestGuard(FunnelEnforce)

	d := g.Authorize(nil, 1001)

	assert.Equal(t, Denied, d.Outcome)
	assert.ErrorIs(t, d.Err, ErrNotAuthenticated)
	assert.NotErrorIs(t, d.Err, ErrInsufficientPermission)
}

func TestAuthorizeMissingIsExactSetDifference(t *testing.T) {
	g := newTestGuard(FunnelIgnore)

	cases := []struct {
		name     string
		held     []Code
		required []Code
		missing  []Code
	}{
		{"empty required", []Code{8001}, nil, nil},
		{"subset", []Code{8001, 8002, 9001}, []Code{9001, 8002}, nil},
		{"disjoint", []Code{2001}, []Code{4001, 4002}, []Code{4001, 4002}},
		{"duplicates collapse", []Code{4001}, []Code{4002, 4002, 4001}, []Code{4002}},
		{"unsorted input", nil, []Code{9004, 1001, 4003}, []Code{1001, 4003, 9004}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Authorize(staff(RoleOwner, tc.held...), tc.required...)
			if tc.missing == nil {
				assert.Equal(t, Passed, d.Outcome)
				assert.Empty(t, d.Missing)
				return
			}
			assert.Equal(t, Denied, d.Outcome)
			assert.Equal(t, tc.missing, d.Missing)
		})
	}
}

func TestAuthorizeIsIdempotent(t *testing.T) {
	g := newTestGuard(FunnelEnforce)
	id := staff(RoleHotelDirector, 4001, 9001)

	first := g.Authorize(id, 4001, 4002)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, g.Authorize(id, 4001, 4002))
	}
	assert.Equal(t, []Code{4001, 9001}, id.Permissions)
}

func TestAuthorizeFunnelPolicy(t *testing.T) {
	unverified := &Identity{ID: 3, Role: RoleOwner, Permissions: []Code{4001}}
	incomplete := &Identity{ID: 4, Role: RoleOwner, Permissions: []Code{4001}, EmailVerified: true}

	enforce := newTestGuard(FunnelEnforce)
	assert.ErrorIs(t, enforce.Authorize(unverified, 4001).Err, ErrVerificationRequired)
	assert.ErrorIs(t, enforce.Authorize(incomplete, 4001).Err, ErrProfileIncomplete)

	ignore := newTestGuard(FunnelIgnore)
	assert.Equal(t, Passed, ignore.Authorize(unverified, 4001).Outcome)
	assert.Equal(t, Passed, ignore.Authorize(incomplete, 4001).Outcome)
}

func TestAuthorizeDoesNotRecheckBlocked(t *testing.T) {
	g := newTestGuard(FunnelEnforce)
	id := staff(RoleOwner, 4001)
	id.Blocked = true

	assert.Equal(t, Passed, g.Authorize(id, 4001).Outcome)
}

func TestAllowRoles(t *testing.T) {
	g := newTestGuard(FunnelEnforce)

	d := g.AllowRoles(staff(RoleHotelManager), RoleAdmin, RoleOwner)
	assert.Equal(t, Denied, d.Outcome)
	assert.ErrorIs(t, d.Err, ErrInsufficientRole)

	d = g.AllowRoles(staff(RoleOwner), RoleAdmin, RoleOwner)
	assert.Equal(t, Passed, d.Outcome)

	d = g.AllowRoles(nil, RoleAdmin)
	assert.ErrorIs(t, d.Err, ErrNotAuthenticated)
}

func TestAllowRolesIgnoresPermissions(t *testing.T) {
	g := newTestGuard(FunnelEnforce)
	id := staff(RoleZoneAgent, PermRoomCategoriesCreate, PermRoomCategoriesUpdate)

	assert.ErrorIs(t, g.AllowRoles(id, RoleOwner).Err, ErrInsufficientRole)
}

func TestAllowRolesFunnelPolicy(t *testing.T) {
	unverified := &Identity{ID: 3, Role: RoleOwner}
	incomplete := &Identity{ID: 4, Role: RoleOwner, EmailVerified: true}
	admin := &Identity{ID: 1, Role: RoleAdmin}

	enforce := newTestGuard(FunnelEnforce)
	assert.ErrorIs(t, enforce.AllowRoles(unverified, RoleAdmin, RoleOwner).Err, ErrVerificationRequired)
	assert.ErrorIs(t, enforce.AllowRoles(incomplete, RoleAdmin, RoleOwner).Err, ErrProfileIncomplete)
	assert.Equal(t, Passed, enforce.AllowRoles(admin, RoleAdmin).Outcome)

	ignore := newTestGuard(FunnelIgnore)
	assert.Equal(t, Passed, ignore.AllowRoles(unverified, RoleAdmin, RoleOwner).Outcome)
}

func TestParseFunnelPolicy(t *testing.T) {
	p, err := ParseFunnelPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FunnelEnforce, p)

	p, err = ParseFunnelPolicy("ignore")
	require.NoError(t, err)
	assert.Equal(t, FunnelIgnore, p)

	_, err = ParseFunnelPolicy("sometimes")
	assert.Error(t, err)
}

func TestIdentityFunnel(t *testing.T) {
	assert.Equal(t, FunnelVerificationRequired, (&Identity{ProfileCompleted: true}).Funnel())
	assert.Equal(t, FunnelProfileRequired, (&Identity{EmailVerified: true}).Funnel())
	assert.Equal(t, FunnelComplete, (&Identity{EmailVerified: true, ProfileCompleted: true}).Funnel())
}
