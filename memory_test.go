package memberkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	roles, err := store.FetchRoles(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, roles)

	rec, err := store.FetchApprovalRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	store.SetRoles("u1", RoleEventsAdmin, RoleMember)
	store.SetRegistrationStatus("u1", StatusApproved)

	roles, err = store.FetchRoles(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []Role{RoleEventsAdmin, RoleMember}, roles)

	// returned slices are copies
	roles[0] = RoleSuperAdmin
	roles, _ = store.FetchRoles(ctx, "u1")
	assert.Equal(t, RoleEventsAdmin, roles[0])

	rec, err = store.FetchApprovalRecord(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "approved", rec.RegistrationStatus)

	store.DeleteRecord("u1")
	rec, err = store.FetchApprovalRecord(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStoreFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.FailRoles(errBackendDown)
	store.FailRecords(errBackendDown)
	store.FailPreferences(errBackendDown)

	_, err := store.FetchRoles(ctx, "u1")
	assert.ErrorIs(t, err, errBackendDown)
	_, err = store.FetchApprovalRecord(ctx, "u1")
	assert.ErrorIs(t, err, errBackendDown)
	_, _, err = store.DashboardView(ctx, "u1")
	assert.ErrorIs(t, err, errBackendDown)
	assert.ErrorIs(t, store.SetDashboardView(ctx, "u1", DashboardMember), errBackendDown)

	store.FailRoles(nil)
	_, err = store.FetchRoles(ctx, "u1")
	assert.NoError(t, err)
}
