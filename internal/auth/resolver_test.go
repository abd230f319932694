package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelier/internal/authz"
)

type stubLookup struct {
	identities map[int64]*authz.Identity
	err        error
}

func (s *stubLookup) IdentityByID(ctx context.Context, userID int64) (*authz.Identity, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	id, ok := s.identities[userID]
	return id, ok, nil
}

func bearer(t *testing.T, a Authenticator, userID int64) string {
	t.Helper()
	access, _, err := a.GenerateTokens(userID, "owner")
	require.NoError(t, err)
	return "Bearer " + access
}

func TestResolveReturnsIdentityWithFunnelFlags(t *testing.T) {
	a := newTestAuthenticator()
	lookup := &stubLookup{identities: map[int64]*authz.Identity{
		5: {ID: 5, Role: authz.RoleOwner, EmailVerified: true},
	}}
	r := NewResolver(a, lookup)

	id, err := r.Resolve(context.Background(), bearer(t, a, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(5), id.ID)
	assert.Equal(t, authz.FunnelProfileRequired, id.Funnel())
}

func TestResolveRejectsMissingAndMalformedHeaders(t *testing.T) {
	r := NewResolver(newTestAuthenticator(), &stubLookup{})

	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer a b", "Bearer not-a-jwt"} {
		_, err := r.Resolve(context.Background(), h)
		assert.ErrorIs(t, err, ErrUnauthenticated, "header %q", h)
	}
}

func TestResolveUnknownSubject(t *testing.T) {
	a := newTestAuthenticator()
	r := NewResolver(a, &stubLookup{identities: map[int64]*authz.Identity{}})

	_, err := r.Resolve(context.Background(), bearer(t, a, 99))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveBlockedAccount(t *testing.T) {
	a := newTestAuthenticator()
	r := NewResolver(a, &stubLookup{identities: map[int64]*authz.Identity{
		8: {ID: 8, Role: authz.RoleHotelManager, Blocked: true},
	}})

	id, err := r.Resolve(context.Background(), bearer(t, a, 8))
	assert.ErrorIs(t, err, ErrBlocked)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	require.NotNil(t, id)
	assert.Equal(t, int64(8), id.ID)
}

func TestResolvePropagatesLookupFailure(t *testing.T) {
	a := newTestAuthenticator()
	boom := errors.New("db down")
	r := NewResolver(a, &stubLookup{err: boom})

	_, err := r.Resolve(context.Background(), bearer(t, a, 1))
	assert.ErrorIs(t, err, boom)
}
