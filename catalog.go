package memberkit

import (
	"math"
	"strings"
)

// Role is a club role assigned to a member. Roles are assigned, never computed.
type Role string

// Roles in hierarchy order, highest precedence first.
const (
	RoleSuperAdmin     Role = "super_admin"
	RoleChairman       Role = "chairman"
	RoleViceChairman   Role = "vice_chairman"
	RoleGeneralAdmin   Role = "general_admin"
	RoleAdmin          Role = "admin" // legacy, still honored by the approval bypass
	RoleFinanceAdmin   Role = "finance_admin"
	RoleCommunityAdmin Role = "community_admin"
	RoleEventsAdmin    Role = "events_admin"
	RoleProjectsAdmin  Role = "projects_admin"
	RoleContentAdmin   Role = "content_admin"
	RoleTechnicalAdmin Role = "technical_admin"
	RoleMarketingAdmin Role = "marketing_admin"
	RoleMember         Role = "member"
)

// UnknownRank is the rank of any role string outside the catalog.
// It sorts after every known role so an unknown role never becomes primary.
const UnknownRank = math.MaxInt

var allRoles = []Role{
	RoleSuperAdmin,
	RoleChairman,
	RoleViceChairman,
	RoleGeneralAdmin,
	RoleAdmin,
	RoleFinanceAdmin,
	RoleCommunityAdmin,
	RoleEventsAdmin,
	RoleProjectsAdmin,
	RoleContentAdmin,
	RoleTechnicalAdmin,
	RoleMarketingAdmin,
	RoleMember,
}

// AllRoles returns every known role in declaration (hierarchy) order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is part of the catalog.
func (r Role) Valid() bool {
	return RankOf(r) != UnknownRank
}

// String returns the role name.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw backend value to a Role.
// Surrounding whitespace and case are ignored. Unknown names return false.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}

var memberPermissions = []Permission{
	PermViewDashboard,
	PermViewProfile,
	PermRegisterEvents,
	PermMakePayments,
	PermVote,
	PermViewCertificates,
}

func withMemberPermissions(extra ...Permission) []Permission {
	out := make([]Permission, 0, len(memberPermissions)+len(extra))
	out = append(out, memberPermissions...)
	return append(out, extra...)
}

// PermissionsOf returns the permissions granted by a single role.
// Unknown roles grant nothing. The returned slice is owned by the caller.
func PermissionsOf(role Role) []Permission {
	switch role {
	case RoleSuperAdmin:
		return AllPermissions()
	case RoleChairman:
		return withMemberPermissions(
			PermManageUsers, PermApproveMembers, PermManageRoles, PermViewAnalytics,
			PermViewFinances, PermManageEvents, PermManageElections, PermManageCommunity,
			PermManageNotifications,
		)
	case RoleViceChairman:
		return withMemberPermissions(
			PermManageUsers, PermApproveMembers, PermViewAnalytics, PermViewFinances,
			PermManageEvents, PermManageCommunity, PermManageNotifications,
		)
	case RoleGeneralAdmin:
		return withMemberPermissions(
			PermManageUsers, PermApproveMembers, PermManageRoles, PermManageSettings,
			PermViewAnalytics, PermManageEvents, PermManageContent, PermManageBlogs,
			PermManageCertificates, PermManageNotifications,
		)
	case RoleAdmin:
		return withMemberPermissions(
			PermManageUsers, PermApproveMembers, PermManageSettings, PermViewAnalytics,
		)
	case RoleFinanceAdmin:
		return withMemberPermissions(
			PermManageFinances, PermViewFinances, PermManagePayments, PermViewAnalytics,
		)
	case RoleCommunityAdmin:
		return withMemberPermissions(
			PermManageCommunity, PermApproveMembers, PermManageUsers, PermManageNotifications,
		)
	case RoleEventsAdmin:
		return withMemberPermissions(PermManageEvents, PermManageCertificates)
	case RoleProjectsAdmin:
		return withMemberPermissions(PermManageProjects)
	case RoleContentAdmin:
		return withMemberPermissions(PermManageContent, PermManageBlogs)
	case RoleTechnicalAdmin:
		return withMemberPermissions(PermManageTechnical, PermManageSettings)
	case RoleMarketingAdmin:
		return withMemberPermissions(PermManageMarketing, PermManageContent)
	case RoleMember:
		return withMemberPermissions()
	default:
		return []Permission{}
	}
}

// RankOf returns the hierarchy rank of a role. Lower ranks take precedence.
func RankOf(role Role) int {
	switch role {
	case RoleSuperAdmin:
		return 0
	case RoleChairman:
		return 1
	case RoleViceChairman:
		return 2
	case RoleGeneralAdmin:
		return 3
	case RoleAdmin:
		return 4
	case RoleFinanceAdmin:
		return 5
	case RoleCommunityAdmin:
		return 6
	case RoleEventsAdmin:
		return 7
	case RoleProjectsAdmin:
		return 8
	case RoleContentAdmin:
		return 9
	case RoleTechnicalAdmin:
		return 10
	case RoleMarketingAdmin:
		return 11
	case RoleMember:
		return 12
	default:
		return UnknownRank
	}
}

// HasPermission reports whether any of roles grants permission.
func HasPermission(roles []Role, permission Permission) bool {
	for _, role := range roles {
		for _, p := range PermissionsOf(role) {
			if p == permission {
				return true
			}
		}
	}
	return false
}

// PrimaryRole picks the highest-precedence role from roles.
// Equal ranks keep the first one seen. When no role is known, member is returned.
func PrimaryRole(roles []Role) Role {
	primary := RoleMember
	best := UnknownRank
	for _, role := range roles {
		if rank := RankOf(role); rank < best {
			primary = role
			best = rank
		}
	}
	return primary
}

// IsAdminClass reports whether role bypasses the registration approval requirement.
// This is the only admin allowlist; the approval resolver, the gate and the dashboard
// selector all go through it.
func IsAdminClass(role Role) bool {
	switch role {
	case RoleSuperAdmin, RoleGeneralAdmin, RoleCommunityAdmin, RoleAdmin, RoleChairman, RoleViceChairman:
		return true
	default:
		return false
	}
}

// HasAdminClassRole reports whether any of roles is admin-class.
func HasAdminClassRole(roles []Role) bool {
	for _, role := range roles {
		if IsAdminClass(role) {
			return true
		}
	}
	return false
}
