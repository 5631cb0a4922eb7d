package memberkit

import "errors"

// Requirement is what a protected route or subtree asks of the principal.
// The zero value only requires a signed-in principal.
type Requirement struct {
	Role            Role       `json:"role,omitempty"`
	Permission      Permission `json:"permission,omitempty"`
	RequireApproval bool       `json:"require_approval,omitempty"`
}

// RequireRoleOf is shorthand for a role-only requirement.
func RequireRoleOf(role Role) Requirement {
	return Requirement{Role: role}
}

// RequirePermissionOf is shorthand for a permission-only requirement.
func RequirePermissionOf(permission Permission) Requirement {
	return Requirement{Permission: permission}
}

// empty reports whether nothing beyond authentication is required.
func (r Requirement) empty() bool {
	return r.Role == "" && r.Permission == "" && !r.RequireApproval
}

// GateState is the state of the access gate state machine.
type GateState string

const (
	GateResolving GateState = "resolving"
	GateAllowed   GateState = "allowed"
	GateDenied    GateState = "denied"
)

// DenyReason explains a GateDenied decision.
type DenyReason string

const (
	DenyNone             DenyReason = ""
	DenyNotAuthenticated DenyReason = "not_authenticated"
	DenyNotApproved      DenyReason = "not_approved"
	DenyInsufficientRole DenyReason = "insufficient_role"
	// DenyResolutionFailed means a backend read failed; callers should offer a retry.
	DenyResolutionFailed DenyReason = "resolution_failed"
)

// Decision is the outcome of evaluating a Requirement against a Snapshot.
type Decision struct {
	State              GateState          `json:"state"`
	Reason             DenyReason         `json:"reason,omitempty"`
	RegistrationStatus RegistrationStatus `json:"registration_status,omitempty"`
	PrincipalID        string             `json:"principal_id,omitempty"`
	Err                error              `json:"-"`
}

// Allowed reports whether protected content may be rendered.
func (d Decision) Allowed() bool {
	return d.State == GateAllowed
}

// Resolving reports whether the gate is still waiting on a resolver.
func (d Decision) Resolving() bool {
	return d.State == GateResolving
}

// Error converts a denial into an error wrapping the matching sentinel, or nil.
func (d Decision) Error() error {
	if d.State != GateDenied {
		return nil
	}
	switch d.Reason {
	case DenyNotAuthenticated:
		return ErrNotAuthenticated
	case DenyNotApproved:
		return NewError(ErrNotApproved, string(d.RegistrationStatus)).WithPrincipal(d.PrincipalID)
	case DenyInsufficientRole:
		return NewError(ErrInsufficientRole, "").WithPrincipal(d.PrincipalID)
	default:
		if d.Err != nil {
			return d.Err
		}
		return NewError(ErrRoleFetchFailed, "authorization state unavailable").WithPrincipal(d.PrincipalID)
	}
}

func denied(reason DenyReason, snap Snapshot) Decision {
	return Decision{State: GateDenied, Reason: reason, PrincipalID: snap.PrincipalID()}
}

// Evaluate runs the access gate state machine over a snapshot.
//
// Order of checks:
//  1. no principal: not_authenticated, without waiting on resolvers
//  2. any resolver still running: resolving
//  3. a resolver failed and something beyond sign-in is required: resolution_failed
//  4. super_admin: allowed
//  5. missing required role or permission: insufficient_role
//  6. approval required, not approved and no admin-class role: not_approved
//  7. allowed
func Evaluate(snap Snapshot, req Requirement) Decision {
	switch {
	case snap.Status == AuthAuthenticating:
		return Decision{State: GateResolving}
	case snap.Principal == nil:
		return denied(DenyNotAuthenticated, snap)
	}

	if snap.Roles.State == StateResolving || snap.Approval.State == StateResolving {
		return Decision{State: GateResolving, PrincipalID: snap.PrincipalID()}
	}

	if !req.empty() && (snap.Roles.State == StateFailed || snap.Approval.State == StateFailed) {
		d := denied(DenyResolutionFailed, snap)
		d.Err = errors.Join(snap.Roles.Err, snap.Approval.Err)
		return d
	}

	info := snap.Roles.Info
	if info.IsSuperAdmin() {
		return Decision{State: GateAllowed, PrincipalID: snap.PrincipalID()}
	}

	if req.Role != "" && !info.HasRole(req.Role) {
		return denied(DenyInsufficientRole, snap)
	}
	if req.Permission != "" && !info.HasPermission(req.Permission) {
		return denied(DenyInsufficientRole, snap)
	}

	if req.RequireApproval && !snap.Approval.Approval.IsApproved && !info.HasAdminAccess() {
		d := denied(DenyNotApproved, snap)
		d.RegistrationStatus = snap.Approval.Approval.RegistrationStatus
		return d
	}

	return Decision{State: GateAllowed, PrincipalID: snap.PrincipalID()}
}

// Gate evaluates requirements against a live Session.
type Gate struct {
	session *Session
}

// NewGate binds a gate to session.
func NewGate(session *Session) *Gate {
	return &Gate{session: session}
}

// Evaluate evaluates req against the session's current snapshot.
// A principal change resets the session, so the next call starts from resolving.
func (g *Gate) Evaluate(req Requirement) Decision {
	d := Evaluate(g.session.Snapshot(), req)
	GateDecisionsTotal.WithLabelValues(string(d.State), string(d.Reason)).Inc()
	return d
}

// Watch calls fn with a fresh decision for req after every session change.
// Decisions arrive in state order, so the last one always matches the current principal.
// The returned func stops watching.
func (g *Gate) Watch(req Requirement, fn func(Decision)) func() {
	return g.session.Subscribe(func(snap Snapshot) {
		fn(Evaluate(snap, req))
	})
}
