package authz

// FunnelState is the signup-progression gate of an identity.
type FunnelState string

const (
	FunnelVerificationRequired FunnelState = "verification_required"
	FunnelProfileRequired      FunnelState = "profile_completion_required"
	FunnelComplete             FunnelState = "complete"
)

// Identity is the authenticated actor a request carries.
//
// Blocked is informational at this layer: the credential resolver rejects
// blocked accounts before an Identity ever reaches the Guard.
type Identity struct {
	ID               int64
	Role             Role
	Permissions      []Code
	Blocked          bool
	EmailVerified    bool
	ProfileCompleted bool
}

// Funnel derives the signup funnel state from the verification flags.
func (id *Identity) Funnel() FunnelState {
	switch {
	case !id.EmailVerified:
		return FunnelVerificationRequired
	case !id.ProfileCompleted:
		return FunnelProfileRequired
	default:
		return FunnelComplete
	}
}

// IsAdmin reports whether the identity holds the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

// Has reports whether code is in the stored permission set. Admin override
// is not applied here; use Guard.Authorize for decisions.
func (id *Identity) Has(code Code) bool {
	for _, c := range id.Permissions {
		if c == code {
			return true
		}
	}
	return false
}
