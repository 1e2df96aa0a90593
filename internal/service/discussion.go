package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// DiscussionService orchestrates discussions and their message threads.
// Every decision resolves against the discussion's parent entity: roles,
// visibility and posting rights all come from the owning group or event.
type DiscussionService struct {
	discussions repository.DiscussionRepository
	groups      repository.GroupRepository
	events      repository.EventRepository
	logger      *slog.Logger
}

// NewDiscussionService creates a DiscussionService.
func NewDiscussionService(
	discussions repository.DiscussionRepository,
	groups repository.GroupRepository,
	events repository.EventRepository,
	logger *slog.Logger,
) *DiscussionService {
	return &DiscussionService{
		discussions: discussions,
		groups:      groups,
		events:      events,
		logger:      logger,
	}
}

// discussionScope is a discussion plus everything resolved from its parent
// that the policy functions need.
type discussionScope struct {
	discussion  *model.Discussion
	roles       policy.RoleSet
	groupOwned  bool
	eventPublic bool
	// memberPosts carries the owning group's AllowMemberPosts flag; always
	// false for event discussions, where posting is participant-gated.
	memberPosts bool
}

func (sc discussionScope) canView() bool {
	return policy.CanViewDiscussion(sc.roles, sc.groupOwned, sc.eventPublic)
}

func (sc discussionScope) canPost() bool {
	if sc.groupOwned {
		return policy.CanPostInGroup(sc.roles, sc.memberPosts)
	}
	return policy.CanContribute(sc.roles)
}

// Create makes a discussion under a group or an event, exactly one of the
// two. If the parent already has a discussion, that one is returned instead
// of an error, matching the one-thread-per-parent model.
func (s *DiscussionService) Create(ctx context.Context, actorID, groupID, eventID string) (*model.Discussion, error) {
	if err := policy.ValidateDiscussionParent(groupID, eventID); err != nil {
		return nil, err
	}

	sc, err := s.resolveParent(ctx, actorID, groupID, eventID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, s.parentNotFound(groupID)
	}
	if !sc.canPost() {
		return nil, apperror.Forbidden("you cannot start a discussion here")
	}

	existing, err := s.getByParent(ctx, groupID, eventID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	d := &model.Discussion{GroupID: groupID, EventID: eventID}
	if err := s.discussions.CreateDiscussion(ctx, d); err != nil {
		// Lost a race with a concurrent creator; return theirs.
		if errors.Is(err, apperror.ErrConflict) {
			return s.getByParent(ctx, groupID, eventID)
		}
		return nil, err
	}

	s.logger.Info("discussion created",
		slog.String("discussionID", d.ID),
		slog.String("groupID", groupID),
		slog.String("eventID", eventID),
	)
	return d, nil
}

// Get returns a discussion if the viewer may see its parent.
func (s *DiscussionService) Get(ctx context.Context, viewerID, discussionID string) (*model.Discussion, error) {
	sc, err := s.loadScope(ctx, viewerID, discussionID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("discussion")
	}
	return sc.discussion, nil
}

// GetByGroup returns the group's discussion, creating it on first access.
func (s *DiscussionService) GetByGroup(ctx context.Context, viewerID, groupID string) (*model.Discussion, error) {
	sc, err := s.resolveParent(ctx, viewerID, groupID, "")
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("group")
	}
	return s.getOrCreate(ctx, groupID, "")
}

// GetByEvent returns the event's discussion, creating it on first access.
func (s *DiscussionService) GetByEvent(ctx context.Context, viewerID, eventID string) (*model.Discussion, error) {
	sc, err := s.resolveParent(ctx, viewerID, "", eventID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("event")
	}
	return s.getOrCreate(ctx, "", eventID)
}

// PostMessage appends a message, optionally as a reply. A reply's parent
// must live in the same discussion; a parent from elsewhere (or none at
// all) is malformed input, not a lookup failure.
func (s *DiscussionService) PostMessage(ctx context.Context, actorID, discussionID, content, parentID string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message content is required")
	}

	sc, err := s.loadScope(ctx, actorID, discussionID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("discussion")
	}
	if !sc.canPost() {
		return nil, apperror.Forbidden("you cannot post in this discussion")
	}

	if parentID != "" {
		parent, err := s.discussions.GetMessageByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("parentMessageId", "parent message does not exist")
			}
			return nil, err
		}
		if err := policy.ValidateMessageParent(parent.DiscussionID, discussionID); err != nil {
			return nil, err
		}
	}

	m := &model.Message{
		DiscussionID:    discussionID,
		AuthorID:        actorID,
		Content:         content,
		ParentMessageID: parentID,
	}
	if err := s.discussions.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("message posted",
		slog.String("discussionID", discussionID),
		slog.String("messageID", m.ID),
	)
	return m, nil
}

// ListMessages returns a discussion's messages, oldest first.
func (s *DiscussionService) ListMessages(ctx context.Context, viewerID, discussionID string, limit, offset int) ([]model.Message, error) {
	sc, err := s.loadScope(ctx, viewerID, discussionID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("discussion")
	}
	limit, offset = clampPage(limit, offset, DefaultMessageLimit, MaxMessageLimit)
	return s.discussions.ListMessages(ctx, discussionID, repository.ListOptions{Limit: limit, Offset: offset})
}

// ListReplies returns the direct replies to one message.
func (s *DiscussionService) ListReplies(ctx context.Context, viewerID, discussionID, messageID string) ([]model.Message, error) {
	sc, err := s.loadScope(ctx, viewerID, discussionID)
	if err != nil {
		return nil, err
	}
	if !sc.canView() {
		return nil, apperror.NotFound("discussion")
	}
	if _, err := s.discussions.GetMessage(ctx, discussionID, messageID); err != nil {
		return nil, err
	}
	return s.discussions.ListReplies(ctx, discussionID, messageID)
}

// DeleteMessage removes a message. Allowed for the author, and as a
// moderation override for organizers of the owning event or admins of the
// owning group.
func (s *DiscussionService) DeleteMessage(ctx context.Context, actorID, discussionID, messageID string) error {
	sc, err := s.loadScope(ctx, actorID, discussionID)
	if err != nil {
		return err
	}
	if !sc.canView() {
		return apperror.NotFound("discussion")
	}

	m, err := s.discussions.GetMessage(ctx, discussionID, messageID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteMessage(sc.roles, actorID, m.AuthorID) {
		return apperror.Forbidden("only the author or a moderator can delete this message")
	}

	if err := s.discussions.DeleteMessage(ctx, discussionID, messageID); err != nil {
		return err
	}
	s.logger.Info("message deleted",
		slog.String("discussionID", discussionID),
		slog.String("messageID", messageID),
		slog.String("actorID", actorID),
	)
	return nil
}

// loadScope fetches a discussion and resolves its parent context.
func (s *DiscussionService) loadScope(ctx context.Context, userID, discussionID string) (discussionScope, error) {
	d, err := s.discussions.GetDiscussion(ctx, discussionID)
	if err != nil {
		return discussionScope{}, err
	}
	sc, err := s.resolveParent(ctx, userID, d.GroupID, d.EventID)
	if err != nil {
		return discussionScope{}, err
	}
	sc.discussion = d
	return sc, nil
}

// resolveParent builds the scope for a (groupID XOR eventID) parent.
func (s *DiscussionService) resolveParent(ctx context.Context, userID, groupID, eventID string) (discussionScope, error) {
	if groupID != "" {
		group, err := s.groups.GetGroup(ctx, groupID)
		if err != nil {
			return discussionScope{}, err
		}
		roster, err := s.groups.GroupRoster(ctx, groupID)
		if err != nil {
			return discussionScope{}, err
		}
		roles := policy.RolesForGroup(userID, roster)
		// A group the caller cannot even see must not leak through its
		// discussion either.
		if !policy.CanViewGroup(roles, group.Kind) {
			return discussionScope{}, apperror.NotFound("group")
		}
		return discussionScope{
			roles:       roles,
			groupOwned:  true,
			memberPosts: group.AllowMemberPosts,
		}, nil
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return discussionScope{}, err
	}
	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return discussionScope{}, err
	}
	return discussionScope{
		roles:       policy.RolesForEvent(userID, roster),
		eventPublic: event.Public,
	}, nil
}

func (s *DiscussionService) getByParent(ctx context.Context, groupID, eventID string) (*model.Discussion, error) {
	if groupID != "" {
		return s.discussions.GetDiscussionByGroup(ctx, groupID)
	}
	return s.discussions.GetDiscussionByEvent(ctx, eventID)
}

// getOrCreate implements the auto-create behavior of the by-group/by-event
// lookups. Visibility has already been checked by the caller.
func (s *DiscussionService) getOrCreate(ctx context.Context, groupID, eventID string) (*model.Discussion, error) {
	d, err := s.getByParent(ctx, groupID, eventID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	d = &model.Discussion{GroupID: groupID, EventID: eventID}
	if err := s.discussions.CreateDiscussion(ctx, d); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return s.getByParent(ctx, groupID, eventID)
		}
		return nil, err
	}
	s.logger.Info("discussion auto-created",
		slog.String("discussionID", d.ID),
		slog.String("groupID", groupID),
		slog.String("eventID", eventID),
	)
	return d, nil
}

// parentNotFound names the hidden parent kind in the NotFound error.
func (s *DiscussionService) parentNotFound(groupID string) error {
	if groupID != "" {
		return apperror.NotFound("group")
	}
	return apperror.NotFound("event")
}
