package memberkit

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultResolveTimeout bounds how long a request waits on the resolvers.
const DefaultResolveTimeout = 5 * time.Second

// DefaultSignInPath is where unauthenticated requests are redirected.
const DefaultSignInPath = "/auth"

// PrincipalExtractor reads the authenticated principal from a request.
// It returns false when the request carries no usable identity.
type PrincipalExtractor func(*http.Request) (Principal, bool)

// DenialHandler writes the response for a request the gate did not allow.
type DenialHandler func(http.ResponseWriter, *http.Request, Decision)

// Middleware provides HTTP middleware for route-level access gating.
type Middleware struct {
	roles          *RoleResolver
	approvals      *ApprovalResolver
	extract        PrincipalExtractor
	denialHandler  DenialHandler
	signInPath     string
	resolveTimeout time.Duration
	retryAfter     time.Duration
	logger         zerolog.Logger
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance. Every gated request resolves roles
// and approval afresh; nothing is cached between requests.
//
// Example:
//
//	mw := memberkit.NewMiddleware(roles, approvals,
//	    memberkit.WithPrincipalExtractor(memberkit.BearerPrincipalExtractor(secret)),
//	    memberkit.WithSignInPath("/auth"),
//	)
func NewMiddleware(roles *RoleResolver, approvals *ApprovalResolver, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		roles:          roles,
		approvals:      approvals,
		extract:        defaultPrincipalExtractor,
		signInPath:     DefaultSignInPath,
		resolveTimeout: DefaultResolveTimeout,
		retryAfter:     DefaultResolveTimeout,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.denialHandler == nil {
		m.denialHandler = m.defaultDenialHandler
	}

	return m
}

// WithPrincipalExtractor sets a custom function to extract the principal from a request.
func WithPrincipalExtractor(fn PrincipalExtractor) MiddlewareOption {
	return func(m *Middleware) {
		m.extract = fn
	}
}

// WithSignInPath sets the redirect target for unauthenticated requests.
func WithSignInPath(path string) MiddlewareOption {
	return func(m *Middleware) {
		m.signInPath = path
	}
}

// WithDenialHandler replaces the default denial responses.
func WithDenialHandler(fn DenialHandler) MiddlewareOption {
	return func(m *Middleware) {
		m.denialHandler = fn
	}
}

// WithResolveTimeout bounds resolution per request. A request still resolving when
// the timeout fires is treated like a failed resolution: denied with resolution_failed
// (503 with Retry-After) when the requirement asks for a role, permission or approval,
// and allowed when it only asks for a signed-in principal.
func WithResolveTimeout(d time.Duration) MiddlewareOption {
	return func(m *Middleware) {
		if d > 0 {
			m.resolveTimeout = d
			m.retryAfter = d
		}
	}
}

// WithMiddlewareLogger sets the logger for denials and resolver failures.
func WithMiddlewareLogger(logger zerolog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

func defaultPrincipalExtractor(r *http.Request) (Principal, bool) {
	return PrincipalFromContext(r.Context())
}

// resolve builds a per-request session for p and waits for it to settle or time out.
func (m *Middleware) resolve(ctx context.Context, p Principal) *Session {
	session := NewSession(m.roles, m.approvals, WithSessionLogger(m.logger))
	session.SignIn(p)

	ctx, cancel := context.WithTimeout(ctx, m.resolveTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = session.Refresh(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return session
}

func withResolved(ctx context.Context, p Principal, session *Session) context.Context {
	ctx = WithPrincipal(ctx, p)
	ctx = WithSession(ctx, session)
	return WithAccess(ctx, session.Snapshot())
}

// decide evaluates req for the request and records the decision.
func (m *Middleware) decide(r *http.Request, req Requirement) (Decision, *Session, Principal) {
	p, ok := m.extract(r)
	if !ok {
		d := Decision{State: GateDenied, Reason: DenyNotAuthenticated}
		GateDecisionsTotal.WithLabelValues(string(d.State), string(d.Reason)).Inc()
		return d, nil, Principal{}
	}

	session := m.resolve(r.Context(), p)
	snap := session.Snapshot()
	d := Evaluate(snap, req)
	switch {
	case d.Resolving() && req.empty():
		// identity is known; sign-in-only routes do not wait on resolvers
		d = Decision{State: GateAllowed, PrincipalID: p.ID}
	case d.Resolving():
		d = denied(DenyResolutionFailed, snap)
		d.Err = NewError(ErrRoleFetchFailed, "resolution timed out").
			WithPrincipal(p.ID).
			WithCause(context.DeadlineExceeded)
	}
	GateDecisionsTotal.WithLabelValues(string(d.State), string(d.Reason)).Inc()
	return d, session, p
}

// Protect creates middleware that admits a request only when req is met.
//
// Example:
//
//	router.With(mw.Protect(memberkit.Requirement{
//	    Permission:      memberkit.PermManageUsers,
//	    RequireApproval: true,
//	})).Get("/admin/members", listMembersHandler)
func (m *Middleware) Protect(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, session, p := m.decide(r, req)
			if !d.Allowed() {
				m.logger.Debug().
					Str("principal_id", d.PrincipalID).
					Str("reason", string(d.Reason)).
					Str("path", r.URL.Path).
					Msg("request denied")
				m.denialHandler(w, r, d)
				return
			}

			next.ServeHTTP(w, r.WithContext(withResolved(r.Context(), p, session)))
		})
	}
}

// RequireRole creates middleware that requires a specific role.
//
// Example:
//
//	router.With(mw.RequireRole(memberkit.RoleFinanceAdmin)).Get("/finance", financeHandler)
func (m *Middleware) RequireRole(role Role) func(http.Handler) http.Handler {
	return m.Protect(RequireRoleOf(role))
}

// RequirePermission creates middleware that requires a specific permission.
func (m *Middleware) RequirePermission(permission Permission) func(http.Handler) http.Handler {
	return m.Protect(RequirePermissionOf(permission))
}

// RequireApproval creates middleware that admits approved members and admin-class roles.
func (m *Middleware) RequireApproval() func(http.Handler) http.Handler {
	return m.Protect(Requirement{RequireApproval: true})
}

// LoadAccess creates middleware that loads the principal's snapshot into context
// without gating. Use this when the handler decides what to show.
//
// Example:
//
//	router.With(mw.LoadAccess()).Get("/dashboard", dashboardHandler)
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    snap, _ := memberkit.AccessFromContext(r.Context())
//	    if memberkit.Evaluate(snap, memberkit.RequirePermissionOf(memberkit.PermViewAnalytics)).Allowed() {
//	        // Show analytics
//	    }
//	}
func (m *Middleware) LoadAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := m.extract(r)
			if !ok {
				// No principal, continue without access
				next.ServeHTTP(w, r)
				return
			}

			session := m.resolve(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(withResolved(r.Context(), p, session)))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from the request
// and adds it to the context for use in member administration operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)
			ctx = WithUserAgent(ctx, r.UserAgent())

			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			if p, ok := m.extract(r); ok {
				ctx = WithActorID(ctx, p.ID)
				ctx = WithPrincipal(ctx, p)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SignInRedirect returns the sign-in URL that brings the user back to r afterwards.
func SignInRedirect(signInPath string, r *http.Request) string {
	return signInPath + "?" + url.Values{"redirect": {r.URL.RequestURI()}}.Encode()
}

// NotApprovedMessage returns the user-facing text for a not_approved denial.
func NotApprovedMessage(status RegistrationStatus) string {
	switch status {
	case StatusNotRegistered:
		return "Registration required: complete your member registration to continue"
	case StatusRejected:
		return "Registration rejected: contact an administrator"
	default:
		return "Registration pending: an administrator must approve your membership"
	}
}

func (m *Middleware) defaultDenialHandler(w http.ResponseWriter, r *http.Request, d Decision) {
	switch d.Reason {
	case DenyNotAuthenticated:
		http.Redirect(w, r, SignInRedirect(m.signInPath, r), http.StatusFound)
	case DenyInsufficientRole:
		http.Error(w, "Forbidden", http.StatusForbidden)
	case DenyNotApproved:
		http.Error(w, NotApprovedMessage(d.RegistrationStatus), http.StatusForbidden)
	default:
		m.logger.Warn().
			Err(d.Err).
			Str("principal_id", d.PrincipalID).
			Msg("authorization state unavailable")
		w.Header().Set("Retry-After", strconv.Itoa(max(1, int(m.retryAfter/time.Second))))
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	}
}
