package memberkit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

// gatedStore wraps a MemoryStore and holds reads for selected principals until released.
type gatedStore struct {
	*MemoryStore

	mu    sync.Mutex
	gates map[string]*storeGate
}

type storeGate struct {
	release chan struct{}
	entered chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{MemoryStore: NewMemoryStore(), gates: make(map[string]*storeGate)}
}

// hold blocks reads for principalID until the returned func is called.
func (g *gatedStore) hold(principalID string) func() {
	gate := &storeGate{release: make(chan struct{}), entered: make(chan struct{}, 8)}
	g.mu.Lock()
	g.gates[principalID] = gate
	g.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate.release) }) }
}

// entered fires each time a read for a held principal starts waiting.
func (g *gatedStore) entered(principalID string) <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gates[principalID].entered
}

func (g *gatedStore) wait(ctx context.Context, principalID string) error {
	g.mu.Lock()
	gate := g.gates[principalID]
	g.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case gate.entered <- struct{}{}:
	default:
	}
	select {
	case <-gate.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedStore) FetchRoles(ctx context.Context, principalID string) ([]Role, error) {
	if err := g.wait(ctx, principalID); err != nil {
		return nil, err
	}
	return g.MemoryStore.FetchRoles(ctx, principalID)
}

func (g *gatedStore) FetchApprovalRecord(ctx context.Context, principalID string) (*ApprovalRecord, error) {
	if err := g.wait(ctx, principalID); err != nil {
		return nil, err
	}
	return g.MemoryStore.FetchApprovalRecord(ctx, principalID)
}

func TestRoleResolver(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetRoles("fin", RoleFinanceAdmin, RoleMember)
	resolver := NewRoleResolver(store)

	t.Run("rows", func(t *testing.T) {
		info, err := resolver.Resolve(ctx, "fin")
		require.NoError(t, err)
		assert.Equal(t, RoleFinanceAdmin, info.AssignedRole)
		assert.Equal(t, []Role{RoleFinanceAdmin, RoleMember}, info.InheritedRoles)
	})

	t.Run("zero rows", func(t *testing.T) {
		info, err := resolver.Resolve(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, []Role{RoleMember}, info.InheritedRoles)
	})

	t.Run("empty principal", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestRoleResolverFailsClosed(t *testing.T) {
	store := NewMemoryStore()
	store.SetRoles("root", RoleSuperAdmin)
	store.FailRoles(errBackendDown)
	resolver := NewRoleResolver(store)

	before := testutil.ToFloat64(ResolverFailuresTotal.WithLabelValues(resolverRoles))
	info, err := resolver.Resolve(context.Background(), "root")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoleFetchFailed)
	assert.ErrorIs(t, err, errBackendDown)
	assert.True(t, IsFetchFailed(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "root", e.PrincipalID)

	assert.Equal(t, []Role{RoleMember}, info.InheritedRoles)
	assert.False(t, info.IsSuperAdmin())
	assert.Equal(t, before+1, testutil.ToFloat64(ResolverFailuresTotal.WithLabelValues(resolverRoles)))
}

func TestApprovalResolver(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetRegistrationStatus("approved", StatusApproved)
	store.SetRegistrationStatus("pending", StatusPending)
	store.SetRegistrationStatus("rejected", StatusRejected)
	store.SetRegistrationStatus("pending-chair", StatusPending)
	store.SetRoles("pending-chair", RoleChairman)
	store.SetRoles("lone-admin", RoleCommunityAdmin)
	store.SetRoles("pending-fin", RoleFinanceAdmin)
	store.SetRegistrationStatus("pending-fin", StatusPending)
	resolver := NewApprovalResolver(store, store)

	tests := []struct {
		principal string
		want      Approval
	}{
		{"approved", Approval{IsApproved: true, RegistrationStatus: StatusApproved}},
		{"pending", Approval{IsApproved: false, RegistrationStatus: StatusPending}},
		{"rejected", Approval{IsApproved: false, RegistrationStatus: StatusRejected}},
		{"unregistered", Approval{IsApproved: false, RegistrationStatus: StatusNotRegistered}},
		{"pending-chair", Approval{IsApproved: true, RegistrationStatus: StatusPending}},
		{"lone-admin", Approval{IsApproved: true, RegistrationStatus: StatusNotRegistered}},
		{"pending-fin", Approval{IsApproved: false, RegistrationStatus: StatusPending}},
	}
	for _, tt := range tests {
		t.Run(tt.principal, func(t *testing.T) {
			got, err := resolver.Resolve(ctx, tt.principal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApprovalResolverUnknownStatusIsPending(t *testing.T) {
	store := NewMemoryStore()
	store.SetRegistrationStatus("odd", RegistrationStatus("waitlisted"))

	got, err := NewApprovalResolver(store, store).Resolve(context.Background(), "odd")
	require.NoError(t, err)
	assert.False(t, got.IsApproved)
	assert.Equal(t, StatusPending, got.RegistrationStatus)
}

func TestApprovalResolverFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("record fetch fails", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetRoles("chair", RoleChairman)
		store.FailRecords(errBackendDown)

		got, err := NewApprovalResolver(store, store).Resolve(ctx, "chair")
		assert.ErrorIs(t, err, ErrApprovalFetchFailed)
		assert.ErrorIs(t, err, errBackendDown)
		assert.Equal(t, Approval{IsApproved: false, RegistrationStatus: StatusNotRegistered}, got)
	})

	t.Run("role fetch fails on pending record", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetRegistrationStatus("m", StatusPending)
		store.FailRoles(errBackendDown)

		got, err := NewApprovalResolver(store, store).Resolve(ctx, "m")
		assert.ErrorIs(t, err, ErrApprovalFetchFailed)
		assert.False(t, got.IsApproved)
		assert.Equal(t, StatusPending, got.RegistrationStatus)
	})

	t.Run("role fetch fails on approved record", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetRegistrationStatus("m", StatusApproved)
		store.FailRoles(errBackendDown)

		got, err := NewApprovalResolver(store, store).Resolve(ctx, "m")
		require.NoError(t, err)
		assert.True(t, got.IsApproved)
	})

	t.Run("empty principal", func(t *testing.T) {
		store := NewMemoryStore()
		got, err := NewApprovalResolver(store, store).Resolve(ctx, "")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.False(t, got.IsApproved)
	})
}
