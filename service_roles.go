package memberkit

import (
	"context"
	"slices"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// ROLE ASSIGNMENT OPERATIONS
// ============================================================================

// AssignRole grants role to userID.
// The actor in ctx must hold manage_roles; only a super_admin may grant super_admin.
//
// Example:
//
//	ctx = memberkit.WithActorID(ctx, adminID)
//	err := service.AssignRole(ctx, targetUserID, memberkit.RoleEventsAdmin)
func (s *Service) AssignRole(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return NewError(ErrInvalidRole, string(role)).WithPrincipal(userID)
	}

	actorID, actorInfo, err := s.requireActor(ctx, PermManageRoles)
	if err != nil {
		return err
	}
	if role == RoleSuperAdmin && !actorInfo.IsSuperAdmin() {
		return NewError(ErrInsufficientRole, "only super_admin may grant super_admin").
			WithRole(role).
			WithActor(actorID)
	}

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		previousRoles, err := tx.FetchRoles(ctx, userID)
		if err != nil {
			return err
		}
		if slices.Contains(previousRoles, role) {
			return NewError(ErrRoleAlreadyAssigned, "member already has this role").
				WithRole(role).
				WithPrincipal(userID)
		}

		assignment := &UserRole{
			UserID: userID,
			Role:   string(role),
		}
		result, err := tx.db.NewInsert().Model(assignment).Exec(ctx)
		err = dbkit.WithErr(result, err, "CreateUserRole").Err()
		if err != nil {
			if dbkit.IsDuplicate(err) {
				return NewError(ErrRoleAlreadyAssigned, "member already has this role").
					WithRole(role).
					WithPrincipal(userID)
			}
			return NewError(ErrDatabaseError, "failed to create role assignment").
				WithRole(role).
				WithPrincipal(userID).
				WithCause(err)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:       actorID,
			Action:        AuditActionAssigned,
			TargetUserID:  userID,
			Role:          role,
			ActorRoles:    actorInfo.InheritedRoles,
			PreviousRoles: previousRoles,
			NewRoles:      append(slices.Clone(previousRoles), role),
			IPAddress:     audit.IPAddress,
			UserAgent:     audit.UserAgent,
			RequestID:     audit.RequestID,
		})
	})
}

// RevokeRole removes role from userID.
// The same actor rules as AssignRole apply.
func (s *Service) RevokeRole(ctx context.Context, userID string, role Role) error {
	if !role.Valid() {
		return NewError(ErrInvalidRole, string(role)).WithPrincipal(userID)
	}

	actorID, actorInfo, err := s.requireActor(ctx, PermManageRoles)
	if err != nil {
		return err
	}
	if role == RoleSuperAdmin && !actorInfo.IsSuperAdmin() {
		return NewError(ErrInsufficientRole, "only super_admin may revoke super_admin").
			WithRole(role).
			WithActor(actorID)
	}

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		previousRoles, err := tx.FetchRoles(ctx, userID)
		if err != nil {
			return err
		}

		result, err := tx.db.NewDelete().Table("user_roles").Where("user_id = ? AND role = ?", userID, string(role)).Exec(ctx)
		err = dbkit.WithErr(result, err, "DeleteUserRole").Err()
		if err != nil {
			return NewError(ErrDatabaseError, "failed to delete role assignment").
				WithRole(role).
				WithPrincipal(userID).
				WithCause(err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return NewError(ErrRoleNotAssigned, "member does not have this role").
				WithRole(role).
				WithPrincipal(userID)
		}

		newRoles := slices.DeleteFunc(slices.Clone(previousRoles), func(r Role) bool { return r == role })

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:       actorID,
			Action:        AuditActionRevoked,
			TargetUserID:  userID,
			Role:          role,
			ActorRoles:    actorInfo.InheritedRoles,
			PreviousRoles: previousRoles,
			NewRoles:      newRoles,
			IPAddress:     audit.IPAddress,
			UserAgent:     audit.UserAgent,
			RequestID:     audit.RequestID,
		})
	})
}

// bootstrapLockKey is the transaction-scoped advisory lock taken by Bootstrap.
const bootstrapLockKey int64 = 0x6d656d6265726b // "memberk"

// Bootstrap grants super_admin to userID when no super_admin exists yet.
// It reports whether the grant happened. Concurrent calls are serialized with an
// advisory lock, so at most one of them grants.
func (s *Service) Bootstrap(ctx context.Context, userID string) (bool, error) {
	granted := false
	err := s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		result, err := tx.db.NewRaw("SELECT pg_advisory_xact_lock(?)", bootstrapLockKey).Exec(ctx)
		if err := dbkit.WithErr(result, err, "BootstrapLock").Err(); err != nil {
			return err
		}

		exists, err := dbkit.Exists[UserRole](ctx, tx.db, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("role = ?", string(RoleSuperAdmin))
		})
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		result, err = tx.db.NewInsert().Model(&UserRole{UserID: userID, Role: string(RoleSuperAdmin)}).Exec(ctx)
		if err := dbkit.WithErr(result, err, "BootstrapSuperAdmin").Err(); err != nil {
			return err
		}
		granted = true

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      userID,
			Action:       AuditActionAssigned,
			TargetUserID: userID,
			Role:         RoleSuperAdmin,
			NewRoles:     []Role{RoleSuperAdmin},
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
	if err != nil {
		return false, err
	}
	if granted {
		s.logger.Info().Str("principal_id", userID).Msg("bootstrapped first super_admin")
	}
	return granted, nil
}

// CountRoleHolders returns the number of members holding role.
func (s *Service) CountRoleHolders(ctx context.Context, role Role) (int, error) {
	return dbkit.Count[UserRole](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("role = ?", string(role))
	})
}
