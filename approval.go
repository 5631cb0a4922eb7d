package memberkit

import "strings"

// RegistrationStatus is the state of a member's registration.
type RegistrationStatus string

const (
	StatusNotRegistered RegistrationStatus = "not_registered"
	StatusPending       RegistrationStatus = "pending"
	StatusApproved      RegistrationStatus = "approved"
	StatusRejected      RegistrationStatus = "rejected"
)

// ParseRegistrationStatus converts a stored status value.
// Anything unrecognized is treated as pending so it can never approve by accident.
func ParseRegistrationStatus(s string) RegistrationStatus {
	switch RegistrationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// Valid reports whether s can be stored on a member record.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Approval is the combined answer of the approval resolver.
type Approval struct {
	IsApproved         bool               `json:"is_approved"`
	RegistrationStatus RegistrationStatus `json:"registration_status"`
}

// ApprovalOutcome is what a UI should show for an Approval.
type ApprovalOutcome string

const (
	OutcomeApproved      ApprovalOutcome = "approved"
	OutcomePending       ApprovalOutcome = "pending"
	OutcomeRejected      ApprovalOutcome = "rejected"
	OutcomeNotRegistered ApprovalOutcome = "not_registered"
)

// Outcome collapses the approval into the screen to show.
// Admin-class bypasses report approved regardless of the stored status.
func (a Approval) Outcome() ApprovalOutcome {
	if a.IsApproved {
		return OutcomeApproved
	}
	switch a.RegistrationStatus {
	case StatusNotRegistered, "":
		return OutcomeNotRegistered
	case StatusRejected:
		return OutcomeRejected
	default:
		return OutcomePending
	}
}

func notApproved() Approval {
	return Approval{IsApproved: false, RegistrationStatus: StatusNotRegistered}
}
