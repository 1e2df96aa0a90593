package handler

import (
	"log/slog"
	"net/http"

	"github.com/tribu-app/tribu/internal/service"
)

// TicketHandler serves ticket types and purchases.
type TicketHandler struct {
	tickets *service.TicketService
	logger  *slog.Logger
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(tickets *service.TicketService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, logger: logger}
}

type createTicketTypeRequest struct {
	Name          string `json:"name"`
	Amount        int64  `json:"amount"`
	QuantityLimit int    `json:"quantityLimit"`
}

type purchaseRequest struct {
	TicketTypeID string `json:"ticketTypeId"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Address      string `json:"address"`
}

// HandleCreateType adds a ticket category to a public event.
//
// POST /api/events/{id}/tickets/types
func (h *TicketHandler) HandleCreateType(w http.ResponseWriter, r *http.Request) {
	var req createTicketTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.tickets.CreateType(r.Context(), viewerID(r), r.PathValue("id"), service.TicketTypeInput{
		Name:          req.Name,
		Amount:        req.Amount,
		QuantityLimit: req.QuantityLimit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleListTypes returns an event's ticket types.
//
// GET /api/events/{id}/tickets/types
func (h *TicketHandler) HandleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.tickets.ListTypes(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

// HandlePurchase buys one ticket. Open to anonymous buyers.
//
// POST /api/events/{id}/tickets/purchase
func (h *TicketHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.tickets.Purchase(r.Context(), r.PathValue("id"), service.PurchaseInput{
		TicketTypeID: req.TicketTypeID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Address:      req.Address,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleListPurchases returns the sales ledger. Organizer-only.
//
// GET /api/events/{id}/tickets/purchases
func (h *TicketHandler) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.tickets.ListPurchases(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchases)
}
