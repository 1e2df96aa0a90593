package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tribu-app/tribu/internal/service"
)

// ShoppingHandler serves event shopping lists.
type ShoppingHandler struct {
	shopping *service.ShoppingService
	logger   *slog.Logger
}

// NewShoppingHandler creates a ShoppingHandler.
func NewShoppingHandler(shopping *service.ShoppingService, logger *slog.Logger) *ShoppingHandler {
	return &ShoppingHandler{shopping: shopping, logger: logger}
}

type shoppingItemRequest struct {
	Name        string     `json:"name"`
	Quantity    *int       `json:"quantity"`
	ArrivalTime *time.Time `json:"arrivalTime"`
}

func (req shoppingItemRequest) input() service.ShoppingItemInput {
	return service.ShoppingItemInput{
		Name:        req.Name,
		Quantity:    req.Quantity,
		ArrivalTime: req.ArrivalTime,
	}
}

// HandleCreateItem adds an entry to the list.
//
// POST /api/events/{id}/shopping-items
func (h *ShoppingHandler) HandleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.shopping.CreateItem(r.Context(), viewerID(r), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HandleListItems returns the event's shopping list.
//
// GET /api/events/{id}/shopping-items
func (h *ShoppingHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.shopping.ListItems(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleUpdateItem changes an item.
//
// PATCH /api/events/{id}/shopping-items/{itemID}
func (h *ShoppingHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req shoppingItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.shopping.UpdateItem(r.Context(), viewerID(r),
		r.PathValue("id"), r.PathValue("itemID"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleDeleteItem removes an item.
//
// DELETE /api/events/{id}/shopping-items/{itemID}
func (h *ShoppingHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	err := h.shopping.DeleteItem(r.Context(), viewerID(r), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
