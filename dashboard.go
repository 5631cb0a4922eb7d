package memberkit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// DashboardView names a dashboard variant.
type DashboardView string

const (
	DashboardMember DashboardView = "member"
	DashboardAdmin  DashboardView = "admin"
)

// Valid reports whether v is a known dashboard view.
func (v DashboardView) Valid() bool {
	return v == DashboardMember || v == DashboardAdmin
}

// DashboardOption configures a DashboardSelector.
type DashboardOption func(*DashboardSelector)

// WithDashboardLogger sets the logger for preference store failures.
func WithDashboardLogger(logger zerolog.Logger) DashboardOption {
	return func(d *DashboardSelector) {
		d.logger = logger
	}
}

// DashboardSelector picks the dashboard variant for the session's principal.
type DashboardSelector struct {
	session *Session
	prefs   PreferenceStore
	logger  zerolog.Logger

	mu         sync.Mutex
	generation uint64
	chosen     DashboardView
	decided    bool
}

// NewDashboardSelector creates a selector over session. prefs may be nil, in which
// case choices last only as long as the principal stays signed in.
func NewDashboardSelector(session *Session, prefs PreferenceStore, opts ...DashboardOption) *DashboardSelector {
	d := &DashboardSelector{
		session: session,
		prefs:   prefs,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func hasAdminAccess(snap Snapshot) bool {
	return snap.Roles.State == StateResolved && snap.Roles.Info.HasAdminAccess()
}

// Current returns the dashboard to mount. It reports false until both resolvers have
// settled for the current principal, so callers never mount a dashboard and swap it.
// The choice is computed once per principal.
func (d *DashboardSelector) Current(ctx context.Context) (DashboardView, bool) {
	snap := d.session.Snapshot()
	if !snap.Settled() {
		return "", false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.decided && d.generation == snap.Generation {
		return d.chosen, true
	}

	view := DashboardMember
	if hasAdminAccess(snap) {
		view = DashboardAdmin
		if stored, ok := d.storedView(ctx, snap.PrincipalID()); ok {
			view = stored
		}
	}

	d.generation = snap.Generation
	d.chosen = view
	d.decided = true
	return view, true
}

func (d *DashboardSelector) storedView(ctx context.Context, principalID string) (DashboardView, bool) {
	if d.prefs == nil {
		return "", false
	}
	view, ok, err := d.prefs.DashboardView(ctx, principalID)
	if err != nil {
		d.logger.Warn().Err(err).Str("principal_id", principalID).Msg("could not read dashboard preference")
		return "", false
	}
	if !ok || !view.Valid() {
		return "", false
	}
	return view, true
}

// Toggle switches to view. Switching to admin without admin access is refused with
// ErrAdminAccessRequired and leaves the current view untouched.
func (d *DashboardSelector) Toggle(ctx context.Context, view DashboardView) error {
	if !view.Valid() {
		return NewError(ErrInvalidDashboardView, string(view))
	}

	snap := d.session.Snapshot()
	if snap.Principal == nil {
		return ErrNotAuthenticated
	}
	if view == DashboardAdmin && !hasAdminAccess(snap) {
		DashboardTogglesTotal.WithLabelValues(string(view), "refused").Inc()
		return NewError(ErrAdminAccessRequired, "admin dashboard requires an admin-class role").
			WithPrincipal(snap.PrincipalID())
	}

	d.mu.Lock()
	d.generation = snap.Generation
	d.chosen = view
	d.decided = true
	d.mu.Unlock()

	DashboardTogglesTotal.WithLabelValues(string(view), "ok").Inc()

	if d.prefs != nil {
		if err := d.prefs.SetDashboardView(ctx, snap.PrincipalID(), view); err != nil {
			d.logger.Warn().Err(err).Str("principal_id", snap.PrincipalID()).Msg("could not store dashboard preference")
		}
	}
	return nil
}
