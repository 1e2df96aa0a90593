// Package policy is the access-control and relational-integrity rule engine.
//
// Everything in this package is a pure function over snapshots of entity
// state (membership rosters, entity fields). No I/O, no side effects. The
// service layer loads the state, asks policy for a decision, and the store
// commits.
//
// The flow for every state-changing request is:
//
//	roles := policy.RolesForEvent(userID, roster)   // who is the caller?
//	policy.CanViewEvent(roles, event.Public)        // may they see it?
//	policy.CanManageEvent(roles)                    // may they do this?
//	policy.ValidateEventDates(start, end)           // would state stay legal?
//
// All checks fail closed: absence of an explicit permit is a denial.
package policy

import "github.com/tribu-app/tribu/internal/model"

// Role is a capability label held by a user with respect to one specific
// group or event. Roles are computed from membership rosters on every
// request, never stored on the user.
type Role string

const (
	// Group roles.
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"

	// Event roles.
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"

	// RoleGroupMember is implied on an event when the caller belongs to the
	// event's hosting group. It grants visibility of private group events
	// without making the caller a participant.
	RoleGroupMember Role = "group_member"
)

// RoleSet is the set of roles a caller holds against one target entity.
// The zero value (nil map) is the anonymous caller: no roles at all.
type RoleSet map[Role]bool

// Has reports whether the set contains r. Safe on a nil set.
func (s RoleSet) Has(r Role) bool { return s[r] }

// Any reports whether the set contains at least one of the given roles.
func (s RoleSet) Any(roles ...Role) bool {
	for _, r := range roles {
		if s[r] {
			return true
		}
	}
	return false
}

// Anonymous is the userID of an unauthenticated caller. Role resolution for
// Anonymous always yields the empty set.
const Anonymous = ""

// RolesForGroup computes the caller's roles against a group from its
// membership roster.
func RolesForGroup(userID string, roster model.GroupRoster) RoleSet {
	if userID == Anonymous {
		return nil
	}
	set := RoleSet{}
	if contains(roster.Members, userID) {
		set[RoleMember] = true
	}
	if contains(roster.Admins, userID) {
		set[RoleAdmin] = true
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// RolesForEvent computes the caller's roles against an event from its
// roster. Membership in the hosting group (if any) surfaces as
// RoleGroupMember.
func RolesForEvent(userID string, roster model.EventRoster) RoleSet {
	if userID == Anonymous {
		return nil
	}
	set := RoleSet{}
	if contains(roster.Participants, userID) {
		set[RoleParticipant] = true
	}
	if contains(roster.Organizers, userID) {
		set[RoleOrganizer] = true
	}
	if contains(roster.GroupMembers, userID) {
		set[RoleGroupMember] = true
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
