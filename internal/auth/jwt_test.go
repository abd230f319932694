package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator("access-secret", "refresh-secret", "hotelier", "hotelier", time.Hour, 2*time.Hour)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	a := newTestAuthenticator()

	access, refresh, err := a.GenerateTokens(42, "hotelManager")
	require.NoError(t, err)

	tok, err := a.ValidateAccessToken(access)
	require.NoError(t, err)
	id, err := SubjectID(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "hotelManager", claims["role"])

	rtok, err := a.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	id, err = SubjectID(rtok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(1, "owner")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(refresh)
	assert.Error(t, err)
	_, err = a.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	a := newTestAuthenticator()
	other := NewJWTAuthenticator("access-secret", "refresh-secret", "hotelier", "someone-else", time.Hour, time.Hour)

	access, _, err := other.GenerateTokens(1, "owner")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(access)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	a := NewJWTAuthenticator("access-secret", "refresh-secret", "hotelier", "hotelier", -time.Minute, time.Hour)

	access, _, err := a.GenerateTokens(1, "owner")
	require.NoError(t, err)

	_, err = a.ValidateAccessToken(access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
