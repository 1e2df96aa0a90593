package model

import "time"

// GroupKind classifies who can see a group.
//
//   - public: anyone can view and discover it
//   - private: only members can view it, but it appears in listings
//   - secret: only members can view it AND it is hidden from listings
//
// Discoverability and viewability are deliberately separate rules — see
// policy.GroupListable vs policy.CanViewGroup.
type GroupKind string

const (
	GroupPublic  GroupKind = "public"
	GroupPrivate GroupKind = "private"
	GroupSecret  GroupKind = "secret"
)

// Valid reports whether k is one of the three known kinds.
func (k GroupKind) Valid() bool {
	switch k {
	case GroupPublic, GroupPrivate, GroupSecret:
		return true
	}
	return false
}

// Group is a community of users. Membership and admin sets are stored in
// association tables and loaded separately as a Roster.
//
// Invariants (enforced by the policy/invariant layer, backed by the store):
//   - admins ⊆ members
//   - |admins| ≥ 1 at all times
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"iconUrl,omitempty"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	Kind        GroupKind `json:"kind"`

	// AllowMemberPosts gates whether non-admin members may create
	// discussions and messages under the group. AllowMemberEvents does the
	// same for events. Admins are never gated by either flag.
	AllowMemberPosts  bool `json:"allowMemberPosts"`
	AllowMemberEvents bool `json:"allowMemberEvents"`

	CreatedAt time.Time `json:"createdAt"`
}

// GroupRoster is a snapshot of a group's membership used for role
// resolution. It carries user IDs only — enough for pure policy decisions
// without dragging full User rows around.
type GroupRoster struct {
	Members []string
	Admins  []string
}
