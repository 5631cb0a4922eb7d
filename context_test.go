package memberkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()

	_, ok := PrincipalFromContext(ctx)
	assert.False(t, ok)

	_, ok = PrincipalFromContext(WithPrincipal(ctx, Principal{}))
	assert.False(t, ok)

	p, ok := PrincipalFromContext(WithPrincipal(ctx, Principal{ID: "u1", Email: "u1@example.org"}))
	assert.True(t, ok)
	assert.Equal(t, "u1@example.org", p.Email)
}

func TestGetActorID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetActorID(ctx))

	ctx = WithPrincipal(ctx, Principal{ID: "principal"})
	assert.Equal(t, "principal", GetActorID(ctx))

	ctx = WithActorID(ctx, "actor")
	assert.Equal(t, "actor", GetActorID(ctx))
}

func TestAuditContextRoundTrip(t *testing.T) {
	ac := AuditContext{
		ActorID:   "admin1",
		IPAddress: "203.0.113.9",
		UserAgent: "curl/8",
		RequestID: "req-42",
	}
	ctx := WithAuditContext(context.Background(), ac)
	assert.Equal(t, ac, GetAuditContext(ctx))

	// empty fields leave existing values alone
	ctx = WithAuditContext(ctx, AuditContext{RequestID: "req-43"})
	got := GetAuditContext(ctx)
	assert.Equal(t, "admin1", got.ActorID)
	assert.Equal(t, "req-43", got.RequestID)
}

func TestAccessAndSessionContext(t *testing.T) {
	ctx := context.Background()

	_, ok := AccessFromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, SessionFromContext(ctx))

	session := newTestSession(NewMemoryStore())
	session.SignIn(Principal{ID: "u"})
	ctx = WithSession(WithAccess(ctx, session.Snapshot()), session)

	snap, ok := AccessFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", snap.PrincipalID())
	assert.Same(t, session, SessionFromContext(ctx))
}
