package model

import "time"

// Event is a gathering, optionally hosted by a group.
//
// Invariants:
//   - StartDate < EndDate, strictly
//   - |organizers| ≥ 1 at all times (the creator is the first organizer)
//   - organizers are always participants as well
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Location    string    `json:"location,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`

	// Public events are viewable by anyone, including anonymous callers.
	// Private events are viewable only by participants, organizers, or
	// members of the hosting group.
	Public bool `json:"public"`

	// GroupID links the event to its hosting group, empty for standalone
	// events. A group link subjects event creation to the group's
	// AllowMemberEvents flag.
	GroupID string `json:"groupId,omitempty"`

	ShoppingListEnabled bool `json:"shoppingListEnabled"`

	CreatedAt time.Time `json:"createdAt"`
}

// EventRoster is a snapshot of an event's membership used for role
// resolution. GroupMembers holds the hosting group's member IDs (empty for
// standalone events) so membership there can surface as an implied role.
type EventRoster struct {
	Participants []string
	Organizers   []string
	GroupMembers []string
}
