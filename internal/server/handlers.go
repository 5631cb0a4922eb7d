package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/fernandezvara/memberkit"
)

type handlers struct {
	logger   zerolog.Logger
	admin    MemberAdmin
	prefs    memberkit.PreferenceStore
	health   HealthChecker
	validate *validator.Validate
}

type accessResponse struct {
	Principal          memberkit.Principal          `json:"principal"`
	Roles              memberkit.RoleInfo           `json:"roles"`
	RolesState         memberkit.ResolveState       `json:"roles_state"`
	IsApproved         bool                         `json:"is_approved"`
	RegistrationStatus memberkit.RegistrationStatus `json:"registration_status"`
	ApprovalState      memberkit.ResolveState       `json:"approval_state"`
	Dashboard          memberkit.DashboardView      `json:"dashboard,omitempty"`
}

type dashboardRequest struct {
	View string `json:"view" validate:"required,oneof=admin member"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps memberkit errors to HTTP statuses.
func (h *handlers) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case memberkit.IsForbidden(err):
		writeError(w, http.StatusForbidden, err.Error())
	case memberkit.IsInvalidRole(err), errors.Is(err, memberkit.ErrInvalidStatus), errors.Is(err, memberkit.ErrInvalidDashboardView):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, memberkit.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, memberkit.ErrMemberExists), errors.Is(err, memberkit.ErrRoleAlreadyAssigned):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, memberkit.ErrRoleNotAssigned):
		writeError(w, http.StatusNotFound, err.Error())
	case memberkit.IsNotAuthenticated(err), errors.Is(err, memberkit.ErrNoActorID):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil && !h.health.IsHealthy(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) access(w http.ResponseWriter, r *http.Request) {
	session := memberkit.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, memberkit.ErrNotAuthenticated.Error())
		return
	}
	snap := session.Snapshot()

	resp := accessResponse{
		Roles:              snap.Roles.Info,
		RolesState:         snap.Roles.State,
		IsApproved:         snap.Approval.Approval.IsApproved,
		RegistrationStatus: snap.Approval.Approval.RegistrationStatus,
		ApprovalState:      snap.Approval.State,
	}
	if snap.Principal != nil {
		resp.Principal = *snap.Principal
	}
	if view, ok := memberkit.NewDashboardSelector(session, h.prefs, memberkit.WithDashboardLogger(h.logger)).Current(r.Context()); ok {
		resp.Dashboard = view
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) toggleDashboard(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if !h.decode(w, r, &req) {
		return
	}
	session := memberkit.SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, memberkit.ErrNotAuthenticated.Error())
		return
	}

	view := memberkit.DashboardView(req.View)
	selector := memberkit.NewDashboardSelector(session, h.prefs, memberkit.WithDashboardLogger(h.logger))
	if err := selector.Toggle(r.Context(), view); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]memberkit.DashboardView{"dashboard": view})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	p, ok := memberkit.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, memberkit.ErrNotAuthenticated.Error())
		return
	}
	member, err := h.admin.RegisterMember(r.Context(), p.ID, p.Email)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *handlers) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID := chi.URLParam(r, "id")
	status := memberkit.RegistrationStatus(req.Status)
	if err := h.admin.SetRegistrationStatus(r.Context(), userID, status); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "registration_status": string(status)})
}

func (h *handlers) assignRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, ok := memberkit.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, memberkit.NewError(memberkit.ErrInvalidRole, req.Role).Error())
		return
	}
	userID := chi.URLParam(r, "id")
	if err := h.admin.AssignRole(r.Context(), userID, role); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"user_id": userID, "role": string(role)})
}

func (h *handlers) revokeRole(w http.ResponseWriter, r *http.Request) {
	role, ok := memberkit.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, http.StatusBadRequest, memberkit.NewError(memberkit.ErrInvalidRole, chi.URLParam(r, "role")).Error())
		return
	}
	if err := h.admin.RevokeRole(r.Context(), chi.URLParam(r, "id"), role); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := memberkit.NewMemberFilter().WithEmail(q.Get("email"))

	if s := q.Get("status"); s != "" {
		status := memberkit.RegistrationStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, memberkit.NewError(memberkit.ErrInvalidStatus, s).Error())
			return
		}
		filter = filter.WithStatus(status)
	}

	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a number")
		return
	}
	offset, err := optionalInt(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "offset must be a number")
		return
	}
	filter = filter.WithPagination(limit, offset)

	members, err := h.admin.ListMembers(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if members == nil {
		members = []memberkit.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("not a non-negative integer")
	}
	return n, nil
}
