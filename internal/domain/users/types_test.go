package users

import (
	"testing"

	"hotelier/internal/authz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	var p password
	require.NoError(t, p.Set("correct horse"))

	assert.NoError(t, p.Compare("correct horse"))
	assert.Error(t, p.Compare("battery staple"))
	assert.NotEqual(t, "correct horse", string(p.hash))
}

func TestUserIdentity(t *testing.T) {
	u := &User{
		ID:               7,
		Role:             authz.RoleHotelManager,
		Permissions:      []authz.Code{authz.PermRoomsView, authz.PermStaysCreate},
		EmailVerified:    true,
		ProfileCompleted: false,
	}

	id := u.Identity()
	assert.Equal(t, int64(7), id.ID)
	assert.Equal(t, authz.RoleHotelManager, id.Role)
	assert.Equal(t, authz.FunnelProfileRequired, id.Funnel())
	assert.True(t, id.Has(authz.PermStaysCreate))

	// the identity must not alias the user's slice
	id.Permissions[0] = authz.PermHotelsDelete
	assert.Equal(t, authz.PermRoomsView, u.Permissions[0])
}

func TestCodeConversion(t *testing.T) {
	codes := []authz.Code{authz.PermClientsView, authz.PermManagePermissions}

	raw := fromCodes(codes)
	assert.Equal(t, []int32{2001, 1701}, raw)
	assert.Equal(t, codes, toCodes(raw))
	assert.Empty(t, toCodes(nil))
}
