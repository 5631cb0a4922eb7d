package memberkit

import (
	"context"
)

// RoleStore reads role assignments from the backend.
// Zero rows is a normal result, not an error.
type RoleStore interface {
	FetchRoles(ctx context.Context, principalID string) ([]Role, error)
}

// ApprovalStore reads member registration records from the backend.
// A nil record with a nil error means the principal never registered.
type ApprovalStore interface {
	FetchApprovalRecord(ctx context.Context, principalID string) (*ApprovalRecord, error)
}

// PreferenceStore keeps the dashboard view a principal last chose.
type PreferenceStore interface {
	DashboardView(ctx context.Context, principalID string) (DashboardView, bool, error)
	SetDashboardView(ctx context.Context, principalID string, view DashboardView) error
}

// IdentityFeed delivers sign-in and sign-out transitions until ctx is done.
type IdentityFeed interface {
	Watch(ctx context.Context, fn func(IdentityEvent)) error
}

// ApprovalRecord is the slice of a member registration the gate cares about.
type ApprovalRecord struct {
	RegistrationStatus string `json:"registration_status"`
}

// IdentityEventType names an authentication transition.
type IdentityEventType string

const (
	IdentitySignedIn  IdentityEventType = "signed_in"
	IdentitySignedOut IdentityEventType = "signed_out"
)

// IdentityEvent is a single authentication transition.
type IdentityEvent struct {
	Type      IdentityEventType `json:"type"`
	Principal Principal         `json:"principal"`
}
