package memberkit

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fernandezvara/dbkit"
	"github.com/rs/zerolog"
)

// Service is the PostgreSQL backend for role assignments and member registrations.
// It implements RoleStore and ApprovalStore and adds the administration workflow
// (registration, approval, role assignment) with an audit trail.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Domain failures are returned as
// *Error values wrapping a memberkit sentinel.
//
// Example error handling:
//
//	err := service.AssignRole(ctx, userID, memberkit.RoleEventsAdmin)
//	switch {
//	case errors.Is(err, memberkit.ErrRoleAlreadyAssigned):
//	    // Nothing to do
//	case memberkit.IsForbidden(err):
//	    // Actor lacks manage_roles
//	case dbkit.IsNotFound(err):
//	    // Handle not found scenarios
//	}
type Service struct {
	db     dbkit.IDB
	logger zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for audit and pool events.
func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new memberkit service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := memberkit.NewService(db)
//	applied, err := service.Migrate(ctx)
func NewService(db dbkit.IDB, opts ...ServiceOption) *Service {
	s := &Service{
		db:     db,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withDB returns a copy of s bound to db. Used to run operations inside a transaction.
func (s *Service) withDB(db dbkit.IDB) *Service {
	return &Service{db: db, logger: s.logger}
}

// FetchRoles implements RoleStore. Stored names are returned verbatim apart from
// trimming; unknown names are kept so RoleInfo can carry them without permissions.
func (s *Service) FetchRoles(ctx context.Context, principalID string) ([]Role, error) {
	var names []string
	err := dbkit.WithErr1(s.db.NewRaw("SELECT role FROM user_roles WHERE user_id = ? ORDER BY created_at", principalID).Scan(ctx, &names), "FetchRoles").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	roles := make([]Role, 0, len(names))
	for _, name := range names {
		if r, ok := ParseRole(name); ok {
			roles = append(roles, r)
			continue
		}
		if name = strings.TrimSpace(name); name != "" {
			roles = append(roles, Role(name))
		}
	}
	return roles, nil
}

// FetchApprovalRecord implements ApprovalStore.
func (s *Service) FetchApprovalRecord(ctx context.Context, principalID string) (*ApprovalRecord, error) {
	member, err := s.getMember(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, nil
	}
	return &ApprovalRecord{RegistrationStatus: member.RegistrationStatus}, nil
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]RoleAuditLog, error) {
	var logs []RoleAuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	q = q.Limit(effectiveLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (s *Service) logAudit(ctx context.Context, entry *AuditEntry) error {
	_, err := s.db.NewInsert().Model(entry.ToModel()).Exec(ctx)
	err = dbkit.WithErr1(err, "LogAudit").Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("action", string(entry.Action)).
			Str("target_user_id", entry.TargetUserID).
			Msg("could not write audit entry")
	}
	return err
}

// requireActor loads the actor from ctx and checks it holds permission.
func (s *Service) requireActor(ctx context.Context, permission Permission) (string, RoleInfo, error) {
	actorID := GetActorID(ctx)
	if actorID == "" {
		return "", RoleInfo{}, NewError(ErrNoActorID, "actor ID required").WithPermission(permission)
	}

	roles, err := s.FetchRoles(ctx, actorID)
	if err != nil {
		return "", RoleInfo{}, NewError(ErrDatabaseError, "could not load actor roles").
			WithActor(actorID).
			WithCause(err)
	}

	info := NewRoleInfo(roles)
	if !info.HasPermission(permission) {
		return "", info, NewError(ErrInsufficientRole, "actor lacks required permission").
			WithActor(actorID).
			WithPermission(permission)
	}
	return actorID, info, nil
}
