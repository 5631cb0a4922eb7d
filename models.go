package memberkit

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is one role row for a principal. A principal may hold several.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    string    `bun:"user_id,notnull"`
	Role      string    `bun:"role,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Member is the registration record created when a principal signs up.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	UserID             string    `bun:"user_id,pk" json:"user_id"`
	Email              string    `bun:"email,notnull" json:"email"`
	RegistrationStatus string    `bun:"registration_status,notnull,default:'pending'" json:"registration_status"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// Status returns the parsed registration status.
func (m *Member) Status() RegistrationStatus {
	return ParseRegistrationStatus(m.RegistrationStatus)
}

// RoleAuditLog records role and registration changes for compliance and debugging.
type RoleAuditLog struct {
	bun.BaseModel `bun:"table:role_audit_log,alias:ral"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp" json:"timestamp"`

	// Who performed the action
	ActorID string `bun:"actor_id,notnull" json:"actor_id"`

	Action string `bun:"action,notnull" json:"action"`

	// Target of the action
	TargetUserID string `bun:"target_user_id,notnull" json:"target_user_id"`
	Role         string `bun:"role" json:"role,omitempty"`
	Status       string `bun:"status" json:"status,omitempty"`

	// Roles of both sides at the time of the change
	ActorRoles    []string `bun:"actor_roles,type:text[]" json:"actor_roles,omitempty"`
	PreviousRoles []string `bun:"previous_roles,type:text[]" json:"previous_roles,omitempty"`
	NewRoles      []string `bun:"new_roles,type:text[]" json:"new_roles,omitempty"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent string `bun:"user_agent" json:"user_agent,omitempty"`
	RequestID string `bun:"request_id" json:"request_id,omitempty"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionAssigned   AuditAction = "assigned"
	AuditActionRevoked    AuditAction = "revoked"
	AuditActionRegistered AuditAction = "registered"
	AuditActionApproved   AuditAction = "approved"
	AuditActionRejected   AuditAction = "rejected"
	AuditActionReopened   AuditAction = "reopened"
)

// auditActionForStatus maps a registration status change to its audit action.
func auditActionForStatus(status RegistrationStatus) AuditAction {
	switch status {
	case StatusApproved:
		return AuditActionApproved
	case StatusRejected:
		return AuditActionRejected
	default:
		return AuditActionReopened
	}
}

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID       string
	Action        AuditAction
	TargetUserID  string
	Role          Role
	Status        RegistrationStatus
	ActorRoles    []Role
	PreviousRoles []Role
	NewRoles      []Role
	IPAddress     string
	UserAgent     string
	RequestID     string
}

// ToModel converts an AuditEntry to a RoleAuditLog model.
func (e *AuditEntry) ToModel() *RoleAuditLog {
	return &RoleAuditLog{
		ActorID:       e.ActorID,
		Action:        string(e.Action),
		TargetUserID:  e.TargetUserID,
		Role:          string(e.Role),
		Status:        string(e.Status),
		ActorRoles:    roleStrings(e.ActorRoles),
		PreviousRoles: roleStrings(e.PreviousRoles),
		NewRoles:      roleStrings(e.NewRoles),
		IPAddress:     e.IPAddress,
		UserAgent:     e.UserAgent,
		RequestID:     e.RequestID,
		Timestamp:     time.Now(),
	}
}

func roleStrings(roles []Role) []string {
	if roles == nil {
		return nil
	}
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
