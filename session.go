package memberkit

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Principal is the authenticated actor.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthStatus is the authentication state of a session.
type AuthStatus string

const (
	AuthAnonymous      AuthStatus = "anonymous"
	AuthAuthenticating AuthStatus = "authenticating"
	AuthAuthenticated  AuthStatus = "authenticated"
)

// ResolveState tracks one resolver for the current principal.
type ResolveState string

const (
	StateResolving ResolveState = "resolving"
	StateResolved  ResolveState = "resolved"
	StateFailed    ResolveState = "failed"
)

// RoleState is the role resolver's result for the current principal.
type RoleState struct {
	State ResolveState `json:"state"`
	Info  RoleInfo     `json:"info"`
	Err   error        `json:"-"`
}

// ApprovalState is the approval resolver's result for the current principal.
type ApprovalState struct {
	State    ResolveState `json:"state"`
	Approval Approval     `json:"approval"`
	Err      error        `json:"-"`
}

// Snapshot is an immutable copy of a session's state.
type Snapshot struct {
	Status     AuthStatus    `json:"status"`
	Principal  *Principal    `json:"principal,omitempty"`
	Generation uint64        `json:"generation"`
	Version    uint64        `json:"version"`
	Roles      RoleState     `json:"roles"`
	Approval   ApprovalState `json:"approval"`
}

// Settled reports whether both resolvers finished for the current principal.
func (s Snapshot) Settled() bool {
	return s.Principal != nil &&
		s.Roles.State != StateResolving &&
		s.Approval.State != StateResolving
}

// PrincipalID returns the current principal ID or "".
func (s Snapshot) PrincipalID() string {
	if s.Principal == nil {
		return ""
	}
	return s.Principal.ID
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger for identity changes and stale responses.
func WithSessionLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session holds the resolved authorization state for one signed-in principal at a time.
// It is the explicit handle passed to gates and dashboard selectors.
type Session struct {
	roles     *RoleResolver
	approvals *ApprovalResolver
	logger    zerolog.Logger

	mu          sync.RWMutex
	status      AuthStatus
	principal   *Principal
	generation  uint64
	version     uint64
	roleState   RoleState
	approval    ApprovalState
	subscribers map[uint64]func(Snapshot)
	nextSubID   uint64

	// deliverMu serializes subscriber callbacks; delivered is the newest version handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// NewSession creates an anonymous session.
func NewSession(roles *RoleResolver, approvals *ApprovalResolver, opts ...SessionOption) *Session {
	s := &Session{
		roles:       roles,
		approvals:   approvals,
		logger:      zerolog.Nop(),
		subscribers: make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked(AuthAnonymous, nil)
	return s
}

func unauthenticatedRoleState() RoleState {
	return RoleState{State: StateResolving, Info: MemberRoleInfo()}
}

func unauthenticatedApprovalState() ApprovalState {
	return ApprovalState{State: StateResolving, Approval: notApproved()}
}

// resetLocked discards everything computed for the previous identity.
func (s *Session) resetLocked(status AuthStatus, p *Principal) {
	s.status = status
	s.principal = p
	s.generation++
	s.version++
	s.roleState = unauthenticatedRoleState()
	s.approval = unauthenticatedApprovalState()
}

// BeginAuthentication marks the session as waiting for the identity provider.
func (s *Session) BeginAuthentication() {
	s.mu.Lock()
	s.resetLocked(AuthAuthenticating, nil)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// SignIn switches the session to p. State computed for any previous principal is discarded.
// Signing in again as the same principal keeps the resolved state.
func (s *Session) SignIn(p Principal) {
	s.mu.Lock()
	if s.principal != nil && s.principal.ID == p.ID && s.status == AuthAuthenticated {
		s.principal.Email = p.Email
		s.version++
		s.mu.Unlock()
		return
	}
	principal := p
	s.resetLocked(AuthAuthenticated, &principal)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("principal_id", p.ID).Msg("principal signed in")
	s.publish(snap)
}

// SignOut resets the session to the unauthenticated defaults.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.status == AuthAnonymous {
		s.mu.Unlock()
		return
	}
	prev := s.principal
	s.resetLocked(AuthAnonymous, nil)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if prev != nil {
		s.logger.Debug().Str("principal_id", prev.ID).Msg("principal signed out")
	}
	s.publish(snap)
}

// Principal returns the signed-in principal.
func (s *Session) Principal() (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return Principal{}, false
	}
	return *s.principal, true
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:     s.status,
		Generation: s.generation,
		Version:    s.version,
		Roles:      s.roleState,
		Approval:   s.approval,
	}
	if s.principal != nil {
		p := *s.principal
		snap.Principal = &p
	}
	return snap
}

// Refresh resolves roles and approval for the principal signed in at call time.
//
// Both reads run concurrently. A response is applied only if the same principal is
// still signed in under the same generation; otherwise it is dropped. The returned
// error joins the resolver failures, which are also recorded in the session state.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	if s.principal == nil {
		s.mu.RUnlock()
		return ErrNotAuthenticated
	}
	principalID := s.principal.ID
	generation := s.generation
	s.mu.RUnlock()

	var (
		info        RoleInfo
		approval    Approval
		roleErr     error
		approvalErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		info, roleErr = s.roles.Resolve(ctx, principalID)
		s.applyRoles(principalID, generation, info, roleErr)
		return nil
	})
	g.Go(func() error {
		approval, approvalErr = s.approvals.Resolve(ctx, principalID)
		s.applyApproval(principalID, generation, approval, approvalErr)
		return nil
	})
	_ = g.Wait()

	return errors.Join(roleErr, approvalErr)
}

func (s *Session) current(principalID string, generation uint64) bool {
	return s.principal != nil && s.principal.ID == principalID && s.generation == generation
}

func (s *Session) applyRoles(principalID string, generation uint64, info RoleInfo, err error) {
	s.mu.Lock()
	if !s.current(principalID, generation) {
		s.mu.Unlock()
		StaleResponsesTotal.WithLabelValues(resolverRoles).Inc()
		s.logger.Debug().Str("principal_id", principalID).Msg("dropping stale role response")
		return
	}
	state := RoleState{State: StateResolved, Info: info}
	if err != nil {
		state = RoleState{State: StateFailed, Info: MemberRoleInfo(), Err: err}
	}
	s.roleState = state
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *Session) applyApproval(principalID string, generation uint64, approval Approval, err error) {
	s.mu.Lock()
	if !s.current(principalID, generation) {
		s.mu.Unlock()
		StaleResponsesTotal.WithLabelValues(resolverApproval).Inc()
		s.logger.Debug().Str("principal_id", principalID).Msg("dropping stale approval response")
		return
	}
	state := ApprovalState{State: StateResolved, Approval: approval}
	if err != nil {
		state = ApprovalState{State: StateFailed, Approval: Approval{RegistrationStatus: approval.RegistrationStatus}, Err: err}
	}
	s.approval = state
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// Subscribe registers fn to receive a snapshot after every identity change and every
// applied resolution. The returned func removes the subscription.
//
// Callbacks run one at a time in state order: a snapshot older than one already
// delivered is skipped, so the last snapshot a subscriber sees is the current state.
// fn must not sign in, sign out or refresh the session it is subscribed to.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Session) publish(snap Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if snap.Version <= s.delivered {
		return
	}
	s.delivered = snap.Version

	s.mu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Follow applies identity events from feed until ctx is done or the feed fails.
// Every sign-in triggers a Refresh; resolver failures are logged, not returned.
func (s *Session) Follow(ctx context.Context, feed IdentityFeed) error {
	return feed.Watch(ctx, func(ev IdentityEvent) {
		switch ev.Type {
		case IdentitySignedIn:
			if ev.Principal.ID == "" {
				s.logger.Warn().Msg("ignoring sign-in event without principal ID")
				return
			}
			s.SignIn(ev.Principal)
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Str("principal_id", ev.Principal.ID).Msg("refresh after sign-in failed")
			}
		case IdentitySignedOut:
			s.SignOut()
		default:
			s.logger.Warn().Str("type", string(ev.Type)).Msg("ignoring unknown identity event")
		}
	})
}
