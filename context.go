package memberkit

import (
	"context"
)

// Context keys for memberkit values.
type contextKey string

const (
	contextKeyPrincipal contextKey = "memberkit:principal"
	contextKeyActorID   contextKey = "memberkit:actor_id"
	contextKeyIPAddress contextKey = "memberkit:ip_address"
	contextKeyUserAgent contextKey = "memberkit:user_agent"
	contextKeyRequestID contextKey = "memberkit:request_id"
	contextKeyAccess    contextKey = "memberkit:access"
	contextKeySession   contextKey = "memberkit:session"
)

// WithPrincipal adds the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext retrieves the principal from context.
// Returns false if not set or if the ID is empty.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if v := ctx.Value(contextKeyPrincipal); v != nil {
		if p, ok := v.(Principal); ok && p.ID != "" {
			return p, true
		}
	}
	return Principal{}, false
}

// WithActorID adds an actor ID to the context.
// This is the member performing an administrative action (for audit purposes).
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Falls back to the principal ID if actor ID is not explicitly set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.ID
	}
	return ""
}

// WithIPAddress adds the client IP address to the context (for audit).
func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKeyIPAddress, ip)
}

// GetIPAddress retrieves the IP address from context.
func GetIPAddress(ctx context.Context) string {
	return stringValue(ctx, contextKeyIPAddress)
}

// WithUserAgent adds the user agent to the context (for audit).
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, contextKeyUserAgent, ua)
}

// GetUserAgent retrieves the user agent from context.
func GetUserAgent(ctx context.Context) string {
	return stringValue(ctx, contextKeyUserAgent)
}

// WithRequestID adds a request ID to the context (for audit and correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, contextKeyRequestID)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithAccess stores the resolved snapshot for the request.
// This is set by middleware and can be retrieved in handlers.
func WithAccess(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, contextKeyAccess, snap)
}

// AccessFromContext retrieves the resolved snapshot stored by middleware.
func AccessFromContext(ctx context.Context) (Snapshot, bool) {
	if v := ctx.Value(contextKeyAccess); v != nil {
		if s, ok := v.(Snapshot); ok {
			return s, true
		}
	}
	return Snapshot{}, false
}

// WithSession stores the request's resolved session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKeySession, session)
}

// SessionFromContext retrieves the session stored by middleware, or nil.
func SessionFromContext(ctx context.Context) *Session {
	if v := ctx.Value(contextKeySession); v != nil {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

// AuditContext holds all audit-related information from context.
type AuditContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
	RequestID string
}

// GetAuditContext extracts all audit information from context.
func GetAuditContext(ctx context.Context) AuditContext {
	return AuditContext{
		ActorID:   GetActorID(ctx),
		IPAddress: GetIPAddress(ctx),
		UserAgent: GetUserAgent(ctx),
		RequestID: GetRequestID(ctx),
	}
}

// WithAuditContext adds all audit information to context at once.
func WithAuditContext(ctx context.Context, ac AuditContext) context.Context {
	if ac.ActorID != "" {
		ctx = WithActorID(ctx, ac.ActorID)
	}
	if ac.IPAddress != "" {
		ctx = WithIPAddress(ctx, ac.IPAddress)
	}
	if ac.UserAgent != "" {
		ctx = WithUserAgent(ctx, ac.UserAgent)
	}
	if ac.RequestID != "" {
		ctx = WithRequestID(ctx, ac.RequestID)
	}
	return ctx
}
