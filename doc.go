// Package memberkit provides the role, permission and approval gating engine for a
// membership-club application.
//
// It answers one question for every protected page, API route or dashboard panel:
// may the signed-in member see or do this? The answer combines two independent reads
// from the backend, the member's assigned roles and the member's registration record.
//
// # Core Concepts
//
// Role: a closed enumeration of club roles (member, chairman, finance_admin, ...).
// A member may hold several roles at once; no rows means "member".
//
// Permission: a closed enumeration of capabilities (manage_events, approve_members, ...).
// The permissions of a member are the UNION of the permissions of every role they hold.
//
// Hierarchy: a total order over roles used to pick a single "primary" role for display.
// The primary role is a label, never an authorization input.
//
// Admin-class role: the fixed allowlist of roles that bypass the approval requirement
// (super_admin, general_admin, community_admin, admin, chairman, vice_chairman).
//
// super_admin: an unconditional override for every role or permission requirement.
//
// # Basic Usage
//
//	// 1. Wire the backend
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := memberkit.NewService(db)
//	applied, err := service.Migrate(ctx)
//
//	// 2. Build resolvers and a session for the signed-in member
//	roles := memberkit.NewRoleResolver(service)
//	approvals := memberkit.NewApprovalResolver(service, service)
//	session := memberkit.NewSession(roles, approvals)
//	session.SignIn(memberkit.Principal{ID: userID, Email: email})
//	_ = session.Refresh(ctx)
//
//	// 3. Gate a subtree
//	gate := memberkit.NewGate(session)
//	decision := gate.Evaluate(memberkit.Requirement{
//	    Permission:      memberkit.PermManageEvents,
//	    RequireApproval: true,
//	})
//	if decision.Allowed() {
//	    // render the events admin panel
//	}
//
// # Middleware Usage
//
//	mw := memberkit.NewMiddleware(roles, approvals,
//	    memberkit.WithPrincipalExtractor(memberkit.BearerPrincipalExtractor(secret)),
//	    memberkit.WithSignInPath("/auth"),
//	)
//
//	router.With(mw.RequirePermission(memberkit.PermApproveMembers)).
//	    Post("/admin/members/{id}/status", approveHandler)
//
// # Failure Handling
//
// Backend failures fail closed: the role resolver falls back to {member}, the approval
// resolver reports "not approved", and the gate reports a distinct resolution_failed
// denial so callers can offer a retry instead of a misleading "pending" screen.
package memberkit
