package memberkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoleInfoNormalization(t *testing.T) {
	tests := []struct {
		name      string
		roles     []Role
		inherited []Role
		assigned  Role
	}{
		{"zero rows", nil, []Role{RoleMember}, RoleMember},
		{"blank rows", []Role{""}, []Role{RoleMember}, RoleMember},
		{"duplicates", []Role{RoleFinanceAdmin, RoleFinanceAdmin}, []Role{RoleFinanceAdmin}, RoleFinanceAdmin},
		{"sorted by rank", []Role{RoleMember, RoleEventsAdmin, RoleChairman}, []Role{RoleChairman, RoleEventsAdmin, RoleMember}, RoleChairman},
		{"unknown kept last", []Role{"owner", RoleContentAdmin}, []Role{RoleContentAdmin, "owner"}, RoleContentAdmin},
		{"unknown only", []Role{"owner"}, []Role{"owner"}, RoleMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewRoleInfo(tt.roles)
			assert.Equal(t, tt.inherited, info.InheritedRoles)
			assert.Equal(t, tt.assigned, info.AssignedRole)
			assert.NotEmpty(t, info.InheritedRoles)
		})
	}
}

func TestRoleInfoPermissionsAreUnion(t *testing.T) {
	roles := []Role{RoleFinanceAdmin, RoleEventsAdmin, RoleMember}
	info := NewRoleInfo(roles)

	expected := map[Permission]bool{}
	for _, r := range roles {
		for _, p := range PermissionsOf(r) {
			expected[p] = true
		}
	}
	require.Len(t, info.Permissions, len(expected))
	for _, p := range info.Permissions {
		assert.True(t, expected[p], "unexpected permission %s", p)
	}

	assert.True(t, info.HasPermission(PermManageFinances))
	assert.True(t, info.HasPermission(PermManageEvents))
	assert.False(t, info.HasPermission(PermManageRoles))
}

func TestRoleInfoUnknownRolesGrantNothing(t *testing.T) {
	info := NewRoleInfo([]Role{"owner"})
	assert.Empty(t, info.Permissions)
	assert.False(t, info.HasPermission(PermViewDashboard))
	assert.True(t, info.HasRole("owner"))
}

func TestRoleInfoAuthorizationUsesFullSet(t *testing.T) {
	// AssignedRole is chairman, but finance permissions come from finance_admin.
	info := NewRoleInfo([]Role{RoleChairman, RoleFinanceAdmin})
	assert.Equal(t, RoleChairman, info.AssignedRole)
	assert.True(t, info.HasPermission(PermManagePayments))
	assert.True(t, info.HasRole(RoleFinanceAdmin))
}

func TestRoleInfoRoleChecks(t *testing.T) {
	info := NewRoleInfo([]Role{RoleEventsAdmin, RoleContentAdmin})

	assert.True(t, info.HasAnyRole(RoleFinanceAdmin, RoleContentAdmin))
	assert.False(t, info.HasAnyRole(RoleFinanceAdmin, RoleChairman))
	assert.False(t, info.HasAnyRole())

	assert.True(t, info.HasAllRoles(RoleEventsAdmin, RoleContentAdmin))
	assert.False(t, info.HasAllRoles(RoleEventsAdmin, RoleChairman))
	assert.True(t, info.HasAllRoles())

	assert.True(t, info.HasAnyPermission(PermManageFinances, PermManageBlogs))
	assert.False(t, info.HasAnyPermission(PermManageFinances))
	assert.True(t, info.HasAllPermissions(PermManageEvents, PermManageBlogs, PermVote))
	assert.False(t, info.HasAllPermissions(PermManageEvents, PermManageRoles))

	assert.False(t, info.IsSuperAdmin())
	assert.False(t, info.HasAdminAccess())
}

func TestRoleInfoAdminAccess(t *testing.T) {
	assert.True(t, NewRoleInfo([]Role{RoleViceChairman}).HasAdminAccess())
	assert.True(t, NewRoleInfo([]Role{RoleSuperAdmin}).IsSuperAdmin())
	assert.False(t, MemberRoleInfo().HasAdminAccess())
}

func TestMemberRoleInfo(t *testing.T) {
	info := MemberRoleInfo()
	assert.Equal(t, RoleMember, info.AssignedRole)
	assert.Equal(t, []Role{RoleMember}, info.InheritedRoles)
	assert.ElementsMatch(t, memberPermissions, info.Permissions)
}

func TestRoleInfoJSONRoundTripKeepsChecks(t *testing.T) {
	data, err := json.Marshal(NewRoleInfo([]Role{RoleProjectsAdmin}))
	require.NoError(t, err)

	var decoded RoleInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.HasPermission(PermManageProjects))
	assert.Equal(t, RoleProjectsAdmin, decoded.AssignedRole)
}
