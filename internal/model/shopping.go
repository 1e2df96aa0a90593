package model

import "time"

// ShoppingItem is an entry on an event's shared shopping list. Names are
// unique per event after normalization (same rule as poll options).
// The list only exists when the event has ShoppingListEnabled.
type ShoppingItem struct {
	ID          string     `json:"id"`
	EventID     string     `json:"eventId"`
	CreatorID   string     `json:"creatorId"`
	Name        string     `json:"name"`
	Quantity    int        `json:"quantity"`
	ArrivalTime *time.Time `json:"arrivalTime,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
