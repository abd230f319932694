package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotelier/internal/authz"
)

var (
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	ErrBlocked         = errors.New("auth: account blocked")
)

// IdentityLookup loads the authorization view of a user. found is false when
// the subject no longer exists.
type IdentityLookup interface {
	IdentityByID(ctx context.Context, userID int64) (id *authz.Identity, found bool, err error)
}

// Resolver turns a bearer credential into an Identity. Funnel state travels
// as flags on the identity so callers can redirect instead of reject.
type Resolver struct {
	authenticator Authenticator
	lookup        IdentityLookup
}

func NewResolver(a Authenticator, lookup IdentityLookup) *Resolver {
	return &Resolver{authenticator: a, lookup: lookup}
}

// Resolve validates the Authorization header value and loads the identity.
// Blocked accounts are rejected here; the guard relies on it. With ErrBlocked
// the identity is still returned so the denial can be attributed.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) (*authz.Identity, error) {
	token, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	jwtToken, err := r.authenticator.ValidateAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	userID, err := SubjectID(jwtToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, found, err := r.lookup.IdentityByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: unknown subject %d", ErrUnauthenticated, userID)
	}
	if id.Blocked {
		return id, ErrBlocked
	}
	return id, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("%w: authorization header is missing", ErrUnauthenticated)
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", fmt.Errorf("%w: authorization header is malformed", ErrUnauthenticated)
	}
	return parts[1], nil
}
