package policy

// Mutation rules: who may change what. Every function returns a plain bool;
// the service layer maps false to apperror.Forbidden (or NotFound when the
// caller could not even see the entity). Absence of an explicit permit is
// always a denial.

// CanManageGroup covers admin-only group operations: changing settings,
// adding/removing members, promoting/demoting admins.
func CanManageGroup(roles RoleSet) bool {
	return roles.Has(RoleAdmin)
}

// CanRemoveGroupMember permits a removal when the actor is an admin or is
// removing themself (members may always leave).
func CanRemoveGroupMember(roles RoleSet, actorID, targetID string) bool {
	if roles.Has(RoleAdmin) {
		return true
	}
	return actorID != Anonymous && actorID == targetID
}

// CanPostInGroup decides whether the actor may create discussions or
// messages under a group. Admins always may; plain members only when the
// group allows member posts.
func CanPostInGroup(roles RoleSet, allowMemberPosts bool) bool {
	if roles.Has(RoleAdmin) {
		return true
	}
	return allowMemberPosts && roles.Has(RoleMember)
}

// CanCreateGroupEvent decides whether the actor may create an event hosted
// by a group. Admins always may; plain members only when the group allows
// member events.
func CanCreateGroupEvent(roles RoleSet, allowMemberEvents bool) bool {
	if roles.Has(RoleAdmin) {
		return true
	}
	return allowMemberEvents && roles.Has(RoleMember)
}

// CanManageEvent covers organizer-only operations: updating the event,
// managing organizers, creating ticket types, viewing the purchase list,
// creating polls, inviting group members.
func CanManageEvent(roles RoleSet) bool {
	return roles.Has(RoleOrganizer)
}

// CanContribute covers participant-or-organizer operations: posting in the
// event discussion, creating albums, uploading photos, commenting, voting,
// and creating/viewing shopping items.
func CanContribute(roles RoleSet) bool {
	return roles.Any(RoleParticipant, RoleOrganizer)
}

// CanDeleteMessage permits deletion to the message author or, as a
// moderation override, to an organizer of the owning event / an admin of
// the owning group. The roles passed in must be resolved against the
// discussion's parent entity.
func CanDeleteMessage(roles RoleSet, actorID, authorID string) bool {
	if actorID != Anonymous && actorID == authorID {
		return true
	}
	return roles.Any(RoleOrganizer, RoleAdmin)
}

// CanEditShoppingItem permits update/delete to the item's creator or to an
// organizer of the owning event.
func CanEditShoppingItem(roles RoleSet, actorID, creatorID string) bool {
	if actorID != Anonymous && actorID == creatorID {
		return true
	}
	return roles.Has(RoleOrganizer)
}
