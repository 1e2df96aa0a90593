package handler

import (
	"log/slog"
	"net/http"

	"github.com/tribu-app/tribu/internal/service"
)

// DiscussionHandler serves discussions and message threads.
type DiscussionHandler struct {
	discussions *service.DiscussionService
	logger      *slog.Logger
}

// NewDiscussionHandler creates a DiscussionHandler.
func NewDiscussionHandler(discussions *service.DiscussionService, logger *slog.Logger) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions, logger: logger}
}

type createDiscussionRequest struct {
	GroupID string `json:"groupId"`
	EventID string `json:"eventId"`
}

type postMessageRequest struct {
	Content         string `json:"content"`
	ParentMessageID string `json:"parentMessageId"`
}

// HandleCreate creates (or returns the existing) discussion for a parent.
//
// POST /api/discussions
func (h *DiscussionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createDiscussionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	d, err := h.discussions.Create(r.Context(), viewerID(r), req.GroupID, req.EventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// HandleGet returns one discussion.
//
// GET /api/discussions/{id}
func (h *DiscussionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	d, err := h.discussions.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleGetByGroup returns the group's discussion, creating it on first
// access.
//
// GET /api/discussions/by-group/{groupID}
func (h *DiscussionHandler) HandleGetByGroup(w http.ResponseWriter, r *http.Request) {
	d, err := h.discussions.GetByGroup(r.Context(), viewerID(r), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleGetByEvent returns the event's discussion, creating it on first
// access.
//
// GET /api/discussions/by-event/{eventID}
func (h *DiscussionHandler) HandleGetByEvent(w http.ResponseWriter, r *http.Request) {
	d, err := h.discussions.GetByEvent(r.Context(), viewerID(r), r.PathValue("eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandlePostMessage appends a message, optionally as a reply.
//
// POST /api/discussions/{id}/messages
func (h *DiscussionHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	m, err := h.discussions.PostMessage(r.Context(), viewerID(r), r.PathValue("id"),
		req.Content, req.ParentMessageID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleListMessages returns a discussion's messages, oldest first.
//
// GET /api/discussions/{id}/messages
func (h *DiscussionHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	messages, err := h.discussions.ListMessages(r.Context(), viewerID(r), r.PathValue("id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleListReplies returns the direct replies to a message.
//
// GET /api/discussions/{id}/messages/{messageID}/replies
func (h *DiscussionHandler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	replies, err := h.discussions.ListReplies(r.Context(), viewerID(r),
		r.PathValue("id"), r.PathValue("messageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

// HandleDeleteMessage deletes a message (author or moderator).
//
// DELETE /api/discussions/{id}/messages/{messageID}
func (h *DiscussionHandler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	err := h.discussions.DeleteMessage(r.Context(), viewerID(r),
		r.PathValue("id"), r.PathValue("messageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
