package memberkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for memberkit operations.
var (
	// ErrNotAuthenticated is returned when an operation needs a signed-in principal.
	ErrNotAuthenticated = errors.New("memberkit: not authenticated")

	// ErrRoleFetchFailed is returned when the backend could not deliver role rows.
	ErrRoleFetchFailed = errors.New("memberkit: role fetch failed")

	// ErrApprovalFetchFailed is returned when the backend could not deliver the registration record.
	ErrApprovalFetchFailed = errors.New("memberkit: approval fetch failed")

	// ErrInsufficientRole is returned when a principal lacks a required role or permission.
	ErrInsufficientRole = errors.New("memberkit: insufficient role")

	// ErrNotApproved is returned when a principal's registration is not approved.
	ErrNotApproved = errors.New("memberkit: registration not approved")

	// ErrAdminAccessRequired is returned when switching to the admin dashboard without admin access.
	ErrAdminAccessRequired = errors.New("memberkit: admin access required")

	// ErrInvalidDashboardView is returned when a dashboard view name is not recognized.
	ErrInvalidDashboardView = errors.New("memberkit: invalid dashboard view")

	// ErrInvalidRole is returned when a role is not part of the catalog.
	ErrInvalidRole = errors.New("memberkit: invalid role")

	// ErrInvalidStatus is returned when a registration status is not recognized.
	ErrInvalidStatus = errors.New("memberkit: invalid registration status")

	// ErrRoleAlreadyAssigned is returned when trying to assign a role the principal already has.
	ErrRoleAlreadyAssigned = errors.New("memberkit: role already assigned")

	// ErrRoleNotAssigned is returned when trying to revoke a role the principal doesn't have.
	ErrRoleNotAssigned = errors.New("memberkit: role not assigned")

	// ErrMemberExists is returned when registering a principal twice.
	ErrMemberExists = errors.New("memberkit: member already registered")

	// ErrMemberNotFound is returned when a registration record is required but missing.
	ErrMemberNotFound = errors.New("memberkit: member not found")

	// ErrNoActorID is returned when actor ID is not found in context for audit.
	ErrNoActorID = errors.New("memberkit: no actor ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("memberkit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err         error      // Underlying sentinel error
	Message     string     // Additional context
	PrincipalID string     // Principal involved (if applicable)
	Role        Role       // Role involved (if applicable)
	Permission  Permission // Permission involved (if applicable)
	ActorID     string     // Actor who triggered the error (if applicable)
	Cause       error      // Backend error that triggered this one
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the sentinel and the backend cause for errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithPrincipal adds principal information to the error.
func (e *Error) WithPrincipal(principalID string) *Error {
	e.PrincipalID = principalID
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role Role) *Error {
	e.Role = role
	return e
}

// WithPermission adds permission information to the error.
func (e *Error) WithPermission(permission Permission) *Error {
	e.Permission = permission
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// WithCause records the backend error behind this one.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// IsNotAuthenticated checks if an error is due to a missing principal.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// IsFetchFailed checks if an error came from a failed backend read in either resolver.
func IsFetchFailed(err error) bool {
	return errors.Is(err, ErrRoleFetchFailed) || errors.Is(err, ErrApprovalFetchFailed)
}

// IsForbidden checks if an error is an expected authorization denial.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrInsufficientRole) || errors.Is(err, ErrNotApproved) || errors.Is(err, ErrAdminAccessRequired)
}

// IsInvalidRole checks if an error is due to an invalid role.
func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}
