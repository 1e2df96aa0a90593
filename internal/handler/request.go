package handler

import (
	"net/http"
	"strconv"

	"github.com/tribu-app/tribu/internal/auth"
)

// viewerID returns the authenticated user ID, or "" for anonymous callers
// on routes behind OptionalAuth. Services treat "" as the anonymous viewer.
func viewerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// parsePage reads ?limit= and ?offset=. Missing or garbage values come back
// as zero; the service clamps them into range.
func parsePage(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
