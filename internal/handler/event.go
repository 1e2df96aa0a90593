package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tribu-app/tribu/internal/service"
)

// EventHandler serves event CRUD and roster management.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

type eventRequest struct {
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	StartDate           time.Time `json:"startDate"`
	EndDate             time.Time `json:"endDate"`
	Location            string    `json:"location"`
	CoverURL            string    `json:"coverUrl"`
	Public              *bool     `json:"public"`
	GroupID             string    `json:"groupId"`
	ShoppingListEnabled *bool     `json:"shoppingListEnabled"`
}

func (req eventRequest) input() service.EventInput {
	return service.EventInput{
		Name:                req.Name,
		Description:         req.Description,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Location:            req.Location,
		CoverURL:            req.CoverURL,
		Public:              req.Public,
		GroupID:             req.GroupID,
		ShoppingListEnabled: req.ShoppingListEnabled,
	}
}

// HandleCreate creates an event.
//
// POST /api/events
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Create(r.Context(), viewerID(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleList lists public events plus the viewer's private ones.
//
// GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	events, err := h.events.List(r.Context(), viewerID(r), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet returns one event.
//
// GET /api/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleUpdate changes event settings.
//
// PATCH /api/events/{id}
func (h *EventHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	event, err := h.events.Update(r.Context(), viewerID(r), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleJoin enrolls the caller as a participant.
//
// POST /api/events/{id}/join
func (h *EventHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Join(r.Context(), viewerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLeave withdraws the caller's participation.
//
// DELETE /api/events/{id}/participants/me
func (h *EventHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Leave(r.Context(), viewerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListParticipants returns the participant roster.
//
// GET /api/events/{id}/participants
func (h *EventHandler) HandleListParticipants(w http.ResponseWriter, r *http.Request) {
	users, err := h.events.ListParticipants(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleListOrganizers returns the organizer roster.
//
// GET /api/events/{id}/organizers
func (h *EventHandler) HandleListOrganizers(w http.ResponseWriter, r *http.Request) {
	users, err := h.events.ListOrganizers(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleAddOrganizer promotes a participant.
//
// POST /api/events/{id}/organizers/{userID}
func (h *EventHandler) HandleAddOrganizer(w http.ResponseWriter, r *http.Request) {
	err := h.events.AddOrganizer(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveOrganizer demotes an organizer.
//
// DELETE /api/events/{id}/organizers/{userID}
func (h *EventHandler) HandleRemoveOrganizer(w http.ResponseWriter, r *http.Request) {
	err := h.events.RemoveOrganizer(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInviteGroupMembers enrolls the hosting group's members.
//
// POST /api/events/{id}/invite-group-members
func (h *EventHandler) HandleInviteGroupMembers(w http.ResponseWriter, r *http.Request) {
	if err := h.events.InviteGroupMembers(r.Context(), viewerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
