package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator issues and validates the access and refresh token pair.
type Authenticator interface {
	GenerateTokens(userID int64, role string) (string, string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	ValidateRefreshToken(token string) (*jwt.Token, error)
}
