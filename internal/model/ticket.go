package model

import "time"

// TicketType is a purchasable ticket category for a public event.
// Amount is in the smallest currency unit (cents).
type TicketType struct {
	ID            string    `json:"id"`
	EventID       string    `json:"eventId"`
	Name          string    `json:"name"`
	Amount        int64     `json:"amount"`
	QuantityLimit int       `json:"quantityLimit"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TicketPurchase records one sale. Purchases are open to anonymous buyers,
// identified by email. Two ledger rules apply, both enforced inside a single
// store transaction:
//   - one purchase per email per event, across all of the event's ticket types
//   - the number of purchases of a type never exceeds its QuantityLimit
type TicketPurchase struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	TicketTypeID string    `json:"ticketTypeId"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Address      string    `json:"address,omitempty"`
	Reference    string    `json:"reference"`
	PurchasedAt  time.Time `json:"purchasedAt"`
}
