package memberkit

import "time"

const defaultListLimit = 100

// AuditLogFilter provides options for filtering audit log queries.
type AuditLogFilter struct {
	// Filter by actor who performed the action
	ActorID string

	// Filter by target member of the action
	TargetUserID string

	Action AuditAction
	Role   Role

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: defaultListLimit,
	}
}

// WithActor sets the actor ID filter.
func (f AuditLogFilter) WithActor(actorID string) AuditLogFilter {
	f.ActorID = actorID
	return f
}

// WithTargetUser sets the target member filter.
func (f AuditLogFilter) WithTargetUser(userID string) AuditLogFilter {
	f.TargetUserID = userID
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = action
	return f
}

// WithRole sets the role filter.
func (f AuditLogFilter) WithRole(role Role) AuditLogFilter {
	f.Role = role
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

// MemberFilter provides options for listing registration records.
type MemberFilter struct {
	Status RegistrationStatus

	// Case-insensitive substring match on email
	EmailContains string

	Limit  int
	Offset int
}

// NewMemberFilter creates a new MemberFilter with default values.
func NewMemberFilter() MemberFilter {
	return MemberFilter{
		Limit: defaultListLimit,
	}
}

// WithStatus sets the registration status filter.
func (f MemberFilter) WithStatus(status RegistrationStatus) MemberFilter {
	f.Status = status
	return f
}

// WithEmail sets the email substring filter.
func (f MemberFilter) WithEmail(fragment string) MemberFilter {
	f.EmailContains = fragment
	return f
}

// WithPagination sets both limit and offset.
func (f MemberFilter) WithPagination(limit, offset int) MemberFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
