package handler

import (
	"log/slog"
	"net/http"

	"github.com/tribu-app/tribu/internal/service"
)

// AlbumHandler serves albums, photos and photo comments.
type AlbumHandler struct {
	albums *service.AlbumService
	logger *slog.Logger
}

// NewAlbumHandler creates an AlbumHandler.
func NewAlbumHandler(albums *service.AlbumService, logger *slog.Logger) *AlbumHandler {
	return &AlbumHandler{albums: albums, logger: logger}
}

type createAlbumRequest struct {
	EventID     string `json:"eventId"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type addPhotoRequest struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// HandleCreate creates an album under an event.
//
// POST /api/albums
func (h *AlbumHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAlbumRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	album, err := h.albums.CreateAlbum(r.Context(), viewerID(r), req.EventID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

// HandleGet returns one album.
//
// GET /api/albums/{id}
func (h *AlbumHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	album, err := h.albums.GetAlbum(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// HandleListByEvent returns an event's albums.
//
// GET /api/albums/by-event/{eventID}
func (h *AlbumHandler) HandleListByEvent(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	albums, err := h.albums.ListAlbumsByEvent(r.Context(), viewerID(r), r.PathValue("eventID"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// HandleAddPhoto uploads a photo into an album.
//
// POST /api/albums/{id}/photos
func (h *AlbumHandler) HandleAddPhoto(w http.ResponseWriter, r *http.Request) {
	var req addPhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	photo, err := h.albums.AddPhoto(r.Context(), viewerID(r), r.PathValue("id"), req.URL, req.Caption)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// HandleListPhotos returns an album's photos.
//
// GET /api/albums/{id}/photos
func (h *AlbumHandler) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	photos, err := h.albums.ListPhotos(r.Context(), viewerID(r), r.PathValue("id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

// HandleCommentPhoto leaves a comment on a photo.
//
// POST /api/photos/{id}/comments
func (h *AlbumHandler) HandleCommentPhoto(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.albums.CommentPhoto(r.Context(), viewerID(r), r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleListPhotoComments returns a photo's comments.
//
// GET /api/photos/{id}/comments
func (h *AlbumHandler) HandleListPhotoComments(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)
	comments, err := h.albums.ListPhotoComments(r.Context(), viewerID(r), r.PathValue("id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
