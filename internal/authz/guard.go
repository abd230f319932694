package authz

import (
	"fmt"
	"time"
)

// Outcome is the result kind of an authorization check.
type Outcome int

const (
	Denied Outcome = iota
	Passed
	Bypassed
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Bypassed:
		return "bypassed"
	default:
		return "denied"
	}
}

// Decision is produced fresh for every check and never persisted beyond the
// request's audit entry.
type Decision struct {
	Outcome  Outcome
	Required []Code
	Missing  []Code
	Err      error
	At       time.Time
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Passed || d.Outcome == Bypassed
}

// FunnelPolicy controls whether mid-funnel identities reach permission-gated
// actions.
type FunnelPolicy string

const (
	FunnelEnforce FunnelPolicy = "enforce"
	FunnelIgnore  FunnelPolicy = "ignore"
)

// ParseFunnelPolicy accepts "enforce" or "ignore"; empty means enforce.
func ParseFunnelPolicy(s string) (FunnelPolicy, error) {
	switch FunnelPolicy(s) {
	case "", FunnelEnforce:
		return FunnelEnforce, nil
	case FunnelIgnore:
		return FunnelIgnore, nil
	}
	return "", fmt.Errorf("authz: unknown funnel policy %q", s)
}

// Guard decides whether an identity may perform an action. It holds no
// per-request state; the zero value enforces the funnel and uses time.Now.
type Guard struct {
	Policy FunnelPolicy
	Now    func() time.Time
}

// NewGuard returns a Guard with the given funnel policy.
func NewGuard(policy FunnelPolicy) *Guard {
	return &Guard{Policy: policy, Now: time.Now}
}

// Authorize checks that id holds every required code. Admin bypasses the
// check entirely, even for codes that are not registered. Blocked state is
// not re-checked here; the credential layer rejects blocked accounts.
func (g *Guard) Authorize(id *Identity, required ...Code) Decision {
	req := normalize(required)
	d := Decision{Required: req, At: g.now()}

	if id == nil {
		d.Outcome = Denied
		d.Err = ErrNotAuthenticated
		return d
	}
	if id.Role == RoleAdmin {
		d.Outcome = Bypassed
		return d
	}
	if err := g.funnelError(id); err != nil {
		d.Outcome = Denied
		d.Err = err
		return d
	}

	held := make(map[Code]struct{}, len(id.Permissions))
	for _, c := range id.Permissions {
		held[c] = struct{}{}
	}
	var missing []Code
	for _, c := range req {
		if _, ok := held[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		d.Outcome = Passed
		return d
	}
	d.Outcome = Denied
	d.Missing = missing
	d.Err = &PermissionError{Missing: missing}
	return d
}

// AllowRoles is the coarse variant: role membership decides, permissions are
// never consulted. The funnel policy applies as it does for Authorize, with
// admin exempt.
func (g *Guard) AllowRoles(id *Identity, allowed ...Role) Decision {
	d := Decision{At: g.now()}
	if id == nil {
		d.Outcome = Denied
		d.Err = ErrNotAuthenticated
		return d
	}
	if id.Role != RoleAdmin {
		if err := g.funnelError(id); err != nil {
			d.Outcome = Denied
			d.Err = err
			return d
		}
	}
	for _, r := range allowed {
		if id.Role == r {
			d.Outcome = Passed
			return d
		}
	}
	d.Outcome = Denied
	d.Err = ErrInsufficientRole
	return d
}

func (g *Guard) funnelError(id *Identity) error {
	if g.Policy == FunnelIgnore {
		return nil
	}
	switch id.Funnel() {
	case FunnelVerificationRequired:
		return ErrVerificationRequired
	case FunnelProfileRequired:
		return ErrProfileIncomplete
	}
	return nil
}

func (g *Guard) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
