package memberkit

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// MEMBER REGISTRATION OPERATIONS
// ============================================================================

// RegisterMember creates a pending registration record for userID.
// Registering twice returns ErrMemberExists.
func (s *Service) RegisterMember(ctx context.Context, userID, email string) (*Member, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	member := &Member{
		UserID:             userID,
		Email:              email,
		RegistrationStatus: string(StatusPending),
	}

	err := s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		result, err := tx.db.NewInsert().Model(member).Exec(ctx)
		err = dbkit.WithErr(result, err, "CreateMember").Err()
		if err != nil {
			if dbkit.IsDuplicate(err) {
				return NewError(ErrMemberExists, "registration already submitted").WithPrincipal(userID)
			}
			return NewError(ErrDatabaseError, "failed to create member").
				WithPrincipal(userID).
				WithCause(err)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      userID,
			Action:       AuditActionRegistered,
			TargetUserID: userID,
			Status:       StatusPending,
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// SetRegistrationStatus approves, rejects or reopens userID's registration.
// The actor in ctx must hold approve_members.
//
// Example:
//
//	ctx = memberkit.WithActorID(ctx, adminID)
//	err := service.SetRegistrationStatus(ctx, applicantID, memberkit.StatusApproved)
func (s *Service) SetRegistrationStatus(ctx context.Context, userID string, status RegistrationStatus) error {
	if !status.Valid() {
		return NewError(ErrInvalidStatus, string(status)).WithPrincipal(userID)
	}

	actorID, actorInfo, err := s.requireActor(ctx, PermApproveMembers)
	if err != nil {
		return err
	}

	return s.Transaction(ctx, func(ctx context.Context, tx *Service) error {
		result, err := tx.db.NewUpdate().
			Table("members").
			Set("registration_status = ?", string(status)).
			Set("updated_at = ?", time.Now()).
			Where("user_id = ?", userID).
			Exec(ctx)
		err = dbkit.WithErr(result, err, "UpdateMemberStatus").Err()
		if err != nil {
			return NewError(ErrDatabaseError, "failed to update registration").
				WithPrincipal(userID).
				WithActor(actorID).
				WithCause(err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return NewError(ErrMemberNotFound, "no registration for member").WithPrincipal(userID)
		}

		audit := GetAuditContext(ctx)
		return tx.logAudit(ctx, &AuditEntry{
			ActorID:      actorID,
			Action:       auditActionForStatus(status),
			TargetUserID: userID,
			Status:       status,
			ActorRoles:   actorInfo.InheritedRoles,
			IPAddress:    audit.IPAddress,
			UserAgent:    audit.UserAgent,
			RequestID:    audit.RequestID,
		})
	})
}

// GetMember returns userID's registration record or ErrMemberNotFound.
func (s *Service) GetMember(ctx context.Context, userID string) (*Member, error) {
	member, err := s.getMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, NewError(ErrMemberNotFound, "no registration for member").WithPrincipal(userID)
	}
	return member, nil
}

func (s *Service) getMember(ctx context.Context, userID string) (*Member, error) {
	var member Member
	err := dbkit.WithErr1(s.db.NewSelect().Model(&member).Where("user_id = ?", userID).Limit(1).Scan(ctx), "GetMember").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// ListMembers returns registration records matching filter, newest first.
func (s *Service) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	var members []Member
	q := s.db.NewSelect().Model(&members)
	if filter.Status != "" {
		q = q.Where("registration_status = ?", string(filter.Status))
	}
	if filter.EmailContains != "" {
		q = q.Where("email ILIKE ?", "%"+filter.EmailContains+"%")
	}

	q = q.Limit(effectiveLimit(filter.Limit))
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("created_at DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "ListMembers").Err()
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CountMembers returns the number of registrations in status, or all when status is empty.
func (s *Service) CountMembers(ctx context.Context, status RegistrationStatus) (int, error) {
	return dbkit.Count[Member](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		if status == "" {
			return q
		}
		return q.Where("registration_status = ?", string(status))
	})
}
