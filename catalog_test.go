package memberkit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllRolesHierarchyOrder(t *testing.T) {
	roles := AllRoles()
	require.Len(t, roles, 13)
	assert.Equal(t, RoleSuperAdmin, roles[0])
	assert.Equal(t, RoleMember, roles[len(roles)-1])

	for i, r := range roles {
		assert.Equal(t, i, RankOf(r), "rank of %s", r)
		assert.True(t, r.Valid())
	}
}

func TestRankOfUnknown(t *testing.T) {
	assert.Equal(t, UnknownRank, RankOf(Role("owner")))
	assert.Equal(t, math.MaxInt, RankOf(Role("")))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"super_admin", RoleSuperAdmin, true},
		{"  Finance_Admin ", RoleFinanceAdmin, true},
		{"MEMBER", RoleMember, true},
		{"admin", RoleAdmin, true},
		{"owner", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPermissionsOf(t *testing.T) {
	t.Run("every role includes member permissions", func(t *testing.T) {
		for _, r := range AllRoles() {
			perms := PermissionsOf(r)
			for _, p := range memberPermissions {
				assert.Contains(t, perms, p, "role %s", r)
			}
		}
	})

	t.Run("super_admin has everything", func(t *testing.T) {
		assert.ElementsMatch(t, AllPermissions(), PermissionsOf(RoleSuperAdmin))
	})

	t.Run("unknown role has nothing", func(t *testing.T) {
		assert.Empty(t, PermissionsOf(Role("owner")))
	})

	t.Run("only known permissions", func(t *testing.T) {
		for _, r := range AllRoles() {
			for _, p := range PermissionsOf(r) {
				assert.True(t, p.Valid(), "role %s grants unknown permission %s", r, p)
			}
		}
	})

	t.Run("member cannot approve", func(t *testing.T) {
		assert.NotContains(t, PermissionsOf(RoleMember), PermApproveMembers)
	})
}

func TestHasPermissionUnion(t *testing.T) {
	roles := []Role{RoleEventsAdmin, RoleContentAdmin}
	assert.True(t, HasPermission(roles, PermManageEvents))
	assert.True(t, HasPermission(roles, PermManageBlogs))
	assert.True(t, HasPermission(roles, PermVote))
	assert.False(t, HasPermission(roles, PermManageFinances))
	assert.False(t, HasPermission(nil, PermVote))
}

func TestPrimaryRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  Role
	}{
		{"empty", nil, RoleMember},
		{"single", []Role{RoleEventsAdmin}, RoleEventsAdmin},
		{"highest wins", []Role{RoleMember, RoleFinanceAdmin, RoleChairman}, RoleChairman},
		{"unknown only", []Role{"owner", "guest"}, RoleMember},
		{"unknown ignored", []Role{"owner", RoleContentAdmin}, RoleContentAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryRole(tt.roles))
		})
	}
}

func TestAdminClass(t *testing.T) {
	adminClass := map[Role]bool{
		RoleSuperAdmin:     true,
		RoleGeneralAdmin:   true,
		RoleCommunityAdmin: true,
		RoleAdmin:          true,
		RoleChairman:       true,
		RoleViceChairman:   true,
	}
	for _, r := range AllRoles() {
		assert.Equal(t, adminClass[r], IsAdminClass(r), "role %s", r)
	}
	assert.False(t, IsAdminClass(Role("owner")))

	assert.True(t, HasAdminClassRole([]Role{RoleMember, RoleViceChairman}))
	assert.False(t, HasAdminClassRole([]Role{RoleFinanceAdmin, RoleEventsAdmin}))
	assert.False(t, HasAdminClassRole(nil))
}

func TestParsePermission(t *testing.T) {
	p, ok := ParsePermission(" Manage_Roles ")
	assert.True(t, ok)
	assert.Equal(t, PermManageRoles, p)

	_, ok = ParsePermission("fly")
	assert.False(t, ok)

	assert.Len(t, AllPermissions(), 24)
	assert.Equal(t, "vote", PermVote.String())
}
