package authz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotAuthenticated       = errors.New("authz: not authenticated")
	ErrInsufficientRole       = errors.New("authz: role not allowed")
	ErrInsufficientPermission = errors.New("authz: insufficient permissions")
	ErrUnknownPermission      = errors.New("authz: unknown permission")
	ErrVerificationRequired   = errors.New("authz: email verification required")
	ErrProfileIncomplete      = errors.New("authz: profile completion required")
)

// PermissionError carries the codes an identity is missing.
type PermissionError struct {
	Missing []Code
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("authz: missing permissions %s", joinCodes(e.Missing))
}

func (e *PermissionError) Unwrap() error {
	return ErrInsufficientPermission
}

// UnknownPermissionError lists codes absent from the registry.
type UnknownPermissionError struct {
	Codes []Code
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("authz: unknown permission codes %s", joinCodes(e.Codes))
}

func (e *UnknownPermissionError) Unwrap() error {
	return ErrUnknownPermission
}

func joinCodes(codes []Code) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
