package memberkit

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ResolverOption configures a RoleResolver or ApprovalResolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	logger zerolog.Logger
}

// WithResolverLogger sets the logger used to report backend failures.
func WithResolverLogger(logger zerolog.Logger) ResolverOption {
	return func(c *resolverConfig) {
		c.logger = logger
	}
}

func newResolverConfig(opts []ResolverOption) resolverConfig {
	cfg := resolverConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// RoleResolver turns backend role rows into a RoleInfo.
type RoleResolver struct {
	store  RoleStore
	logger zerolog.Logger
}

// NewRoleResolver creates a RoleResolver reading from store.
func NewRoleResolver(store RoleStore, opts ...ResolverOption) *RoleResolver {
	cfg := newResolverConfig(opts)
	return &RoleResolver{
		store:  store,
		logger: cfg.logger,
	}
}

// Resolve fetches the principal's roles and derives its RoleInfo.
//
// On backend failure the returned RoleInfo is the member fallback and the error wraps
// ErrRoleFetchFailed. Callers must treat the fallback as unresolved for gating.
func (r *RoleResolver) Resolve(ctx context.Context, principalID string) (RoleInfo, error) {
	if principalID == "" {
		return MemberRoleInfo(), ErrNotAuthenticated
	}

	roles, err := r.store.FetchRoles(ctx, principalID)
	if err != nil {
		ResolverFailuresTotal.WithLabelValues(resolverRoles).Inc()
		r.logger.Warn().
			Err(err).
			Str("principal_id", principalID).
			Msg("role fetch failed, falling back to member")
		return MemberRoleInfo(), NewError(ErrRoleFetchFailed, "could not load role assignments").
			WithPrincipal(principalID).
			WithCause(err)
	}

	return NewRoleInfo(roles), nil
}

// ApprovalResolver decides whether a principal may use approval-gated features.
type ApprovalResolver struct {
	approvals ApprovalStore
	roles     RoleStore
	logger    zerolog.Logger
}

// NewApprovalResolver creates an ApprovalResolver. roles is consulted for the
// admin-class bypass.
func NewApprovalResolver(approvals ApprovalStore, roles RoleStore, opts ...ResolverOption) *ApprovalResolver {
	cfg := newResolverConfig(opts)
	return &ApprovalResolver{
		approvals: approvals,
		roles:     roles,
		logger:    cfg.logger,
	}
}

// Resolve fetches the registration record and the role rows concurrently and combines them.
//
// A missing record reports StatusNotRegistered, distinct from a pending one. Admin-class
// roles approve regardless of the record. Backend failures return a not-approved result
// and an error wrapping ErrApprovalFetchFailed.
func (a *ApprovalResolver) Resolve(ctx context.Context, principalID string) (Approval, error) {
	if principalID == "" {
		return notApproved(), ErrNotAuthenticated
	}

	var (
		record  *ApprovalRecord
		roles   []Role
		recErr  error
		roleErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		record, recErr = a.approvals.FetchApprovalRecord(ctx, principalID)
		return nil
	})
	g.Go(func() error {
		roles, roleErr = a.roles.FetchRoles(ctx, principalID)
		return nil
	})
	_ = g.Wait()

	if recErr != nil {
		return notApproved(), a.fail(principalID, "could not load registration record", recErr)
	}

	status := StatusNotRegistered
	if record != nil {
		status = ParseRegistrationStatus(record.RegistrationStatus)
	}

	if status == StatusApproved {
		return Approval{IsApproved: true, RegistrationStatus: status}, nil
	}

	if roleErr != nil {
		return Approval{IsApproved: false, RegistrationStatus: status},
			a.fail(principalID, "could not load roles for approval bypass", roleErr)
	}

	return Approval{
		IsApproved:         HasAdminClassRole(roles),
		RegistrationStatus: status,
	}, nil
}

func (a *ApprovalResolver) fail(principalID, message string, cause error) error {
	ResolverFailuresTotal.WithLabelValues(resolverApproval).Inc()
	a.logger.Warn().
		Err(cause).
		Str("principal_id", principalID).
		Msg(message)
	return NewError(ErrApprovalFetchFailed, message).
		WithPrincipal(principalID).
		WithCause(cause)
}
