package handler

import (
	"log/slog"
	"net/http"

	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/service"
)

// GroupHandler serves group CRUD and membership management.
type GroupHandler struct {
	groups *service.GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(groups *service.GroupService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, logger: logger}
}

type groupRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	IconURL           string `json:"iconUrl"`
	CoverURL          string `json:"coverUrl"`
	Kind              string `json:"kind"`
	AllowMemberPosts  *bool  `json:"allowMemberPosts"`
	AllowMemberEvents *bool  `json:"allowMemberEvents"`
}

func (req groupRequest) input() service.GroupInput {
	return service.GroupInput{
		Name:              req.Name,
		Description:       req.Description,
		IconURL:           req.IconURL,
		CoverURL:          req.CoverURL,
		Kind:              model.GroupKind(req.Kind),
		AllowMemberPosts:  req.AllowMemberPosts,
		AllowMemberEvents: req.AllowMemberEvents,
	}
}

// HandleCreate creates a group.
//
// POST /api/groups
func (h *GroupHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Create(r.Context(), viewerID(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// HandleList lists discoverable groups.
//
// GET /api/groups
func (h *GroupHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	groups, err := h.groups.List(r.Context(), viewerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// HandleGet returns one group.
//
// GET /api/groups/{id}
func (h *GroupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleUpdate changes group settings.
//
// PATCH /api/groups/{id}
func (h *GroupHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := h.groups.Update(r.Context(), viewerID(r), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// HandleListMembers returns the member roster.
//
// GET /api/groups/{id}/members
func (h *GroupHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.groups.ListMembers(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// HandleAddMember enrolls a user.
//
// POST /api/groups/{id}/members/{userID}
func (h *GroupHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.AddMember(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember removes a user (admins remove anyone, members leave).
//
// DELETE /api/groups/{id}/members/{userID}
func (h *GroupHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveMember(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAdmins returns the admin roster.
//
// GET /api/groups/{id}/admins
func (h *GroupHandler) HandleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.groups.ListAdmins(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

// HandleAddAdmin promotes a member.
//
// POST /api/groups/{id}/admins/{userID}
func (h *GroupHandler) HandleAddAdmin(w http.ResponseWriter, r *http.Request) {
	err := h.groups.AddAdmin(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveAdmin demotes an admin.
//
// DELETE /api/groups/{id}/admins/{userID}
func (h *GroupHandler) HandleRemoveAdmin(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveAdmin(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
