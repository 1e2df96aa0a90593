package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// GroupService orchestrates group lifecycle and membership management.
type GroupService struct {
	groups repository.GroupRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewGroupService creates a GroupService.
func NewGroupService(groups repository.GroupRepository, users repository.UserRepository, logger *slog.Logger) *GroupService {
	return &GroupService{groups: groups, users: users, logger: logger}
}

// GroupInput carries the creatable/updatable group fields.
type GroupInput struct {
	Name              string
	Description       string
	IconURL           string
	CoverURL          string
	Kind              model.GroupKind
	AllowMemberPosts  *bool
	AllowMemberEvents *bool
}

// Create makes a new group. The creator is enrolled as both member and
// admin, so the |admins| >= 1 invariant holds from the start.
func (s *GroupService) Create(ctx context.Context, actorID string, in GroupInput) (*model.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "group name is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = model.GroupPublic
	}
	if !kind.Valid() {
		return nil, apperror.ValidationFailed("kind", "kind must be public, private or secret")
	}

	group := &model.Group{
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		IconURL:           in.IconURL,
		CoverURL:          in.CoverURL,
		Kind:              kind,
		AllowMemberPosts:  true,
		AllowMemberEvents: false,
	}
	if in.AllowMemberPosts != nil {
		group.AllowMemberPosts = *in.AllowMemberPosts
	}
	if in.AllowMemberEvents != nil {
		group.AllowMemberEvents = *in.AllowMemberEvents
	}

	if err := s.groups.CreateGroup(ctx, group, actorID); err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		slog.String("groupID", group.ID),
		slog.String("creatorID", actorID),
	)
	return group, nil
}

// Get returns a group if the viewer may see it. A private or secret group
// is NotFound for non-members — indistinguishable from a missing one.
func (s *GroupService) Get(ctx context.Context, viewerID, groupID string) (*model.Group, error) {
	group, roles, err := s.load(ctx, viewerID, groupID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return nil, apperror.NotFound("group")
	}
	return group, nil
}

// List returns groups the viewer may discover. Secret groups are filtered
// out unless the viewer belongs to them — a listing rule, distinct from
// direct viewability.
func (s *GroupService) List(ctx context.Context, viewerID string, limit, offset int) ([]model.Group, error) {
	limit, offset = clampPage(limit, offset, DefaultListLimit, MaxListLimit)

	groups, err := s.groups.ListGroups(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	visible := make([]model.Group, 0, len(groups))
	for _, g := range groups {
		if g.Kind != model.GroupSecret {
			visible = append(visible, g)
			continue
		}
		roster, err := s.groups.GroupRoster(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if policy.GroupListable(policy.RolesForGroup(viewerID, roster), g.Kind) {
			visible = append(visible, g)
		}
	}
	return visible, nil
}

// Update changes group settings. Admin-only.
func (s *GroupService) Update(ctx context.Context, actorID, groupID string, in GroupInput) (*model.Group, error) {
	group, roles, err := s.load(ctx, actorID, groupID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return nil, apperror.NotFound("group")
	}
	if !policy.CanManageGroup(roles) {
		return nil, apperror.Forbidden("admin permissions required")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		group.Name = name
	}
	if in.Description != "" {
		group.Description = strings.TrimSpace(in.Description)
	}
	if in.IconURL != "" {
		group.IconURL = in.IconURL
	}
	if in.CoverURL != "" {
		group.CoverURL = in.CoverURL
	}
	if in.Kind != "" {
		if !in.Kind.Valid() {
			return nil, apperror.ValidationFailed("kind", "kind must be public, private or secret")
		}
		group.Kind = in.Kind
	}
	if in.AllowMemberPosts != nil {
		group.AllowMemberPosts = *in.AllowMemberPosts
	}
	if in.AllowMemberEvents != nil {
		group.AllowMemberEvents = *in.AllowMemberEvents
	}

	if err := s.groups.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("group updated", slog.String("groupID", group.ID))
	return group, nil
}

// ListMembers returns the member roster of a visible group.
func (s *GroupService) ListMembers(ctx context.Context, viewerID, groupID string) ([]model.User, error) {
	if _, err := s.Get(ctx, viewerID, groupID); err != nil {
		return nil, err
	}
	return s.groups.ListGroupMembers(ctx, groupID)
}

// ListAdmins returns the admin roster of a visible group.
func (s *GroupService) ListAdmins(ctx context.Context, viewerID, groupID string) ([]model.User, error) {
	if _, err := s.Get(ctx, viewerID, groupID); err != nil {
		return nil, err
	}
	return s.groups.ListGroupAdmins(ctx, groupID)
}

// AddMember enrolls a user into the group. Admin-only.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID string) error {
	group, roles, err := s.load(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return apperror.NotFound("group")
	}
	if !policy.CanManageGroup(roles) {
		return apperror.Forbidden("admin permissions required")
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}

	if err := s.groups.AddGroupMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.Info("group member added",
		slog.String("groupID", groupID), slog.String("userID", userID))
	return nil
}

// RemoveMember removes a user from the group. Admins may remove anyone;
// a member may remove themself. Removing a member who is the last admin is
// rejected so the group is never left unadministered.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	group, roles, err := s.load(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return apperror.NotFound("group")
	}
	if !policy.CanRemoveGroupMember(roles, actorID, userID) {
		return apperror.Forbidden("admin permissions required")
	}

	roster, err := s.groups.GroupRoster(ctx, groupID)
	if err != nil {
		return err
	}
	targetRoles := policy.RolesForGroup(userID, roster)
	if targetRoles.Has(policy.RoleAdmin) {
		if err := policy.CanRemoveAdmin(len(roster.Admins)); err != nil {
			return err
		}
	}

	if err := s.groups.RemoveGroupMember(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.Info("group member removed",
		slog.String("groupID", groupID), slog.String("userID", userID))
	return nil
}

// AddAdmin promotes an existing member. Admin-only; promoting a non-member
// is rejected since admins must be a subset of members.
func (s *GroupService) AddAdmin(ctx context.Context, actorID, groupID, userID string) error {
	group, roles, err := s.load(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return apperror.NotFound("group")
	}
	if !policy.CanManageGroup(roles) {
		return apperror.Forbidden("admin permissions required")
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}

	roster, err := s.groups.GroupRoster(ctx, groupID)
	if err != nil {
		return err
	}
	if !policy.RolesForGroup(userID, roster).Has(policy.RoleMember) {
		return apperror.ValidationFailed("userId", "user must be a member before becoming admin")
	}

	if err := s.groups.AddGroupAdmin(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.Info("group admin added",
		slog.String("groupID", groupID), slog.String("userID", userID))
	return nil
}

// RemoveAdmin demotes an admin. Admin-only; removing the last admin is
// rejected. Demoting a non-admin is a no-op.
func (s *GroupService) RemoveAdmin(ctx context.Context, actorID, groupID, userID string) error {
	group, roles, err := s.load(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if !policy.CanViewGroup(roles, group.Kind) {
		return apperror.NotFound("group")
	}
	if !policy.CanManageGroup(roles) {
		return apperror.Forbidden("admin permissions required")
	}

	roster, err := s.groups.GroupRoster(ctx, groupID)
	if err != nil {
		return err
	}
	if !policy.RolesForGroup(userID, roster).Has(policy.RoleAdmin) {
		return nil
	}
	if err := policy.CanRemoveAdmin(len(roster.Admins)); err != nil {
		return err
	}

	if err := s.groups.RemoveGroupAdmin(ctx, groupID, userID); err != nil {
		return err
	}
	s.logger.Info("group admin removed",
		slog.String("groupID", groupID), slog.String("userID", userID))
	return nil
}

// load fetches a group and resolves the caller's roles against it.
func (s *GroupService) load(ctx context.Context, userID, groupID string) (*model.Group, policy.RoleSet, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.groups.GroupRoster(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, policy.RolesForGroup(userID, roster), nil
}
