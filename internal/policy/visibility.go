package policy

import "github.com/tribu-app/tribu/internal/model"

// Visibility rules. A false result from any CanView* function must surface
// to the caller as "not found", never as "forbidden" — denial of visibility
// and absence are indistinguishable so private entities cannot be probed.

// CanViewGroup decides direct read access to a group. Public groups are
// open to everyone, anonymous included. Private and secret groups require
// membership.
func CanViewGroup(roles RoleSet, kind model.GroupKind) bool {
	if kind == model.GroupPublic {
		return true
	}
	return roles.Any(RoleMember, RoleAdmin)
}

// GroupListable decides whether a group appears in listings and search.
// This is a separate rule from CanViewGroup: a secret group is viewable by
// its members via direct access but never discoverable by non-members.
func GroupListable(roles RoleSet, kind model.GroupKind) bool {
	if kind == model.GroupSecret {
		return roles.Any(RoleMember, RoleAdmin)
	}
	return true
}

// CanViewEvent decides read access to an event. Public events are open to
// everyone. Private events require being an organizer, a participant, or a
// member of the hosting group.
func CanViewEvent(roles RoleSet, public bool) bool {
	if public {
		return true
	}
	return roles.Any(RoleOrganizer, RoleParticipant, RoleGroupMember)
}

// CanViewDiscussion decides read access to a discussion and, transitively,
// its messages. Visibility is derived from the owning entity:
//
//   - group discussion: group members only
//   - event discussion: whoever can view the event
//
// The caller passes the role set resolved against the discussion's parent.
func CanViewDiscussion(roles RoleSet, groupOwned bool, eventPublic bool) bool {
	if groupOwned {
		return roles.Any(RoleMember, RoleAdmin)
	}
	return CanViewEvent(roles, eventPublic)
}

// CanViewEventContent covers albums, photos, photo comments, polls and
// poll results: all transitively share the owning event's visibility.
// Results visibility explicitly does not require having voted.
func CanViewEventContent(roles RoleSet, eventPublic bool) bool {
	return CanViewEvent(roles, eventPublic)
}
