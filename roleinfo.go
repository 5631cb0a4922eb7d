package memberkit

import "sort"

// RoleInfo is the derived authorization view of a principal's role assignment.
// It is recomputed whenever the assignment changes and is never persisted.
type RoleInfo struct {
	// AssignedRole is the highest-ranked inherited role. Display only.
	AssignedRole Role `json:"assigned_role"`
	// InheritedRoles is every role the principal holds. Never empty.
	InheritedRoles []Role `json:"inherited_roles"`
	// Permissions is the UNION of the permissions of InheritedRoles.
	Permissions []Permission `json:"permissions"`

	perms permissionSet
}

// NewRoleInfo builds a RoleInfo from raw role rows.
// An empty assignment normalizes to {member}. Duplicates are dropped and unknown
// roles are kept after the known ones, contributing no permissions.
func NewRoleInfo(roles []Role) RoleInfo {
	inherited := normalizeRoles(roles)
	perms := newPermissionSet(inherited)
	return RoleInfo{
		AssignedRole:   PrimaryRole(inherited),
		InheritedRoles: inherited,
		Permissions:    perms.sorted(),
		perms:          perms,
	}
}

// MemberRoleInfo is the least-privileged RoleInfo, used as the fail-closed fallback.
func MemberRoleInfo() RoleInfo {
	return NewRoleInfo(nil)
}

func normalizeRoles(roles []Role) []Role {
	if len(roles) == 0 {
		return []Role{RoleMember}
	}

	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		return []Role{RoleMember}
	}

	// Stable keeps unknown roles in backend order behind the known ones.
	sort.SliceStable(out, func(i, j int) bool {
		return RankOf(out[i]) < RankOf(out[j])
	})
	return out
}

func (ri RoleInfo) permissionSet() permissionSet {
	if ri.perms != nil {
		return ri.perms
	}
	return newPermissionSet(ri.InheritedRoles)
}

// HasRole checks if the principal holds role.
func (ri RoleInfo) HasRole(role Role) bool {
	for _, r := range ri.InheritedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if the principal holds any of roles.
func (ri RoleInfo) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if ri.HasRole(role) {
			return true
		}
	}
	return false
}

// HasAllRoles checks if the principal holds every one of roles.
// An empty list is vacuously true.
func (ri RoleInfo) HasAllRoles(roles ...Role) bool {
	for _, role := range roles {
		if !ri.HasRole(role) {
			return false
		}
	}
	return true
}

// HasPermission checks the full permission set, not the assigned role.
func (ri RoleInfo) HasPermission(permission Permission) bool {
	return ri.permissionSet().has(permission)
}

// HasAnyPermission checks if any of permissions is granted.
func (ri RoleInfo) HasAnyPermission(permissions ...Permission) bool {
	set := ri.permissionSet()
	for _, p := range permissions {
		if set.has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if every one of permissions is granted.
func (ri RoleInfo) HasAllPermissions(permissions ...Permission) bool {
	set := ri.permissionSet()
	for _, p := range permissions {
		if !set.has(p) {
			return false
		}
	}
	return true
}

// IsSuperAdmin reports whether the principal holds super_admin.
func (ri RoleInfo) IsSuperAdmin() bool {
	return ri.HasRole(RoleSuperAdmin)
}

// HasAdminAccess reports whether the principal holds an admin-class role.
func (ri RoleInfo) HasAdminAccess() bool {
	return HasAdminClassRole(ri.InheritedRoles)
}
