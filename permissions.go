package memberkit

import (
	"sort"
	"strings"
)

// Permission names a single capability a role may grant.
type Permission string

const (
	// Member self-service
	PermViewDashboard    Permission = "view_dashboard"
	PermViewProfile      Permission = "view_profile"
	PermRegisterEvents   Permission = "register_events"
	PermMakePayments     Permission = "make_payments"
	PermVote             Permission = "vote"
	PermViewCertificates Permission = "view_certificates"

	// Administration
	PermManageUsers         Permission = "manage_users"
	PermApproveMembers      Permission = "approve_members"
	PermManageRoles         Permission = "manage_roles"
	PermManageSettings      Permission = "manage_settings"
	PermViewAnalytics       Permission = "view_analytics"
	PermManageFinances      Permission = "manage_finances"
	PermViewFinances        Permission = "view_finances"
	PermManagePayments      Permission = "manage_payments"
	PermManageCommunity     Permission = "manage_community"
	PermManageEvents        Permission = "manage_events"
	PermManageProjects      Permission = "manage_projects"
	PermManageContent       Permission = "manage_content"
	PermManageBlogs         Permission = "manage_blogs"
	PermManageElections     Permission = "manage_elections"
	PermManageCertificates  Permission = "manage_certificates"
	PermManageNotifications Permission = "manage_notifications"
	PermManageTechnical     Permission = "manage_technical"
	PermManageMarketing     Permission = "manage_marketing"
)

var allPermissions = []Permission{
	PermViewDashboard,
	PermViewProfile,
	PermRegisterEvents,
	PermMakePayments,
	PermVote,
	PermViewCertificates,
	PermManageUsers,
	PermApproveMembers,
	PermManageRoles,
	PermManageSettings,
	PermViewAnalytics,
	PermManageFinances,
	PermViewFinances,
	PermManagePayments,
	PermManageCommunity,
	PermManageEvents,
	PermManageProjects,
	PermManageContent,
	PermManageBlogs,
	PermManageElections,
	PermManageCertificates,
	PermManageNotifications,
	PermManageTechnical,
	PermManageMarketing,
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p is one of the declared permissions.
func (p Permission) Valid() bool {
	for _, known := range allPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// String returns the permission name.
func (p Permission) String() string {
	return string(p)
}

// ParsePermission converts a raw string to a Permission.
// Surrounding whitespace and case are ignored. Unknown names return false.
func ParsePermission(s string) (Permission, bool) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", false
	}
	return p, true
}

// permissionSet is the UNION of permissions granted by a group of roles.
type permissionSet map[Permission]struct{}

func newPermissionSet(roles []Role) permissionSet {
	set := make(permissionSet)
	for _, role := range roles {
		for _, p := range PermissionsOf(role) {
			set[p] = struct{}{}
		}
	}
	return set
}

func (s permissionSet) has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// sorted returns the set as a slice ordered by name.
func (s permissionSet) sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
