package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// EventService orchestrates event lifecycle and roster management.
type EventService struct {
	events repository.EventRepository
	groups repository.GroupRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewEventService creates an EventService.
func NewEventService(
	events repository.EventRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *EventService {
	return &EventService{events: events, groups: groups, users: users, logger: logger}
}

// EventInput carries the creatable/updatable event fields.
type EventInput struct {
	Name                string
	Description         string
	StartDate           time.Time
	EndDate             time.Time
	Location            string
	CoverURL            string
	Public              *bool
	GroupID             string
	ShoppingListEnabled *bool
}

// Create makes a new event. The creator becomes its first organizer. A
// group-hosted event additionally requires that the creator may create
// events under that group.
func (s *EventService) Create(ctx context.Context, actorID string, in EventInput) (*model.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "event name is required")
	}
	if err := policy.ValidateEventDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	if in.GroupID != "" {
		group, err := s.groups.GetGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		roster, err := s.groups.GroupRoster(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		roles := policy.RolesForGroup(actorID, roster)
		if !policy.CanViewGroup(roles, group.Kind) {
			return nil, apperror.NotFound("group")
		}
		if !policy.CanCreateGroupEvent(roles, group.AllowMemberEvents) {
			return nil, apperror.Forbidden("group does not allow you to create events")
		}
	}

	event := &model.Event{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Location:    in.Location,
		CoverURL:    in.CoverURL,
		Public:      true,
		GroupID:     in.GroupID,
	}
	if in.Public != nil {
		event.Public = *in.Public
	}
	if in.ShoppingListEnabled != nil {
		event.ShoppingListEnabled = *in.ShoppingListEnabled
	}

	if err := s.events.CreateEvent(ctx, event, actorID); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.String("eventID", event.ID),
		slog.String("creatorID", actorID),
	)
	return event, nil
}

// Get returns an event if the viewer may see it. A private event is
// NotFound for outsiders.
func (s *EventService) Get(ctx context.Context, viewerID, eventID string) (*model.Event, error) {
	event, _, err := s.loadVisible(ctx, viewerID, eventID)
	return event, err
}

// List returns public events plus the viewer's own private ones.
func (s *EventService) List(ctx context.Context, viewerID string, limit, offset int) ([]model.Event, error) {
	limit, offset = clampPage(limit, offset, DefaultListLimit, MaxListLimit)
	return s.events.ListEvents(ctx, viewerID, repository.ListOptions{Limit: limit, Offset: offset})
}

// Update changes event settings. Organizer-only.
func (s *EventService) Update(ctx context.Context, actorID, eventID string, in EventInput) (*model.Event, error) {
	event, roles, err := s.loadVisible(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(roles) {
		return nil, apperror.Forbidden("organizer permissions required")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		event.Name = name
	}
	if in.Description != "" {
		event.Description = strings.TrimSpace(in.Description)
	}
	if in.Location != "" {
		event.Location = in.Location
	}
	if in.CoverURL != "" {
		event.CoverURL = in.CoverURL
	}
	start, end := event.StartDate, event.EndDate
	if !in.StartDate.IsZero() {
		start = in.StartDate.UTC()
	}
	if !in.EndDate.IsZero() {
		end = in.EndDate.UTC()
	}
	if err := policy.ValidateEventDates(start, end); err != nil {
		return nil, err
	}
	event.StartDate, event.EndDate = start, end
	if in.Public != nil {
		event.Public = *in.Public
	}
	if in.ShoppingListEnabled != nil {
		event.ShoppingListEnabled = *in.ShoppingListEnabled
	}

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event updated", slog.String("eventID", event.ID))
	return event, nil
}

// Join enrolls the caller as a participant. Idempotent: joining an event
// you already attend succeeds quietly.
func (s *EventService) Join(ctx context.Context, actorID, eventID string) error {
	if _, _, err := s.loadVisible(ctx, actorID, eventID); err != nil {
		return err
	}
	if err := s.events.AddParticipant(ctx, eventID, actorID); err != nil {
		return err
	}
	s.logger.Info("participant joined",
		slog.String("eventID", eventID), slog.String("userID", actorID))
	return nil
}

// Leave withdraws the caller's participation. Organizers cannot leave while
// still organizing; they must step down first.
func (s *EventService) Leave(ctx context.Context, actorID, eventID string) error {
	_, roles, err := s.loadVisible(ctx, actorID, eventID)
	if err != nil {
		return err
	}
	if roles.Has(policy.RoleOrganizer) {
		return apperror.Conflict("organizers must step down before leaving the event")
	}
	if err := s.events.RemoveParticipant(ctx, eventID, actorID); err != nil {
		return err
	}
	s.logger.Info("participant left",
		slog.String("eventID", eventID), slog.String("userID", actorID))
	return nil
}

// ListParticipants returns the participant roster of a visible event.
func (s *EventService) ListParticipants(ctx context.Context, viewerID, eventID string) ([]model.User, error) {
	if _, _, err := s.loadVisible(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	return s.events.ListParticipants(ctx, eventID)
}

// ListOrganizers returns the organizer roster of a visible event.
func (s *EventService) ListOrganizers(ctx context.Context, viewerID, eventID string) ([]model.User, error) {
	if _, _, err := s.loadVisible(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	return s.events.ListOrganizers(ctx, eventID)
}

// AddOrganizer promotes a participant. Organizer-only; promoting someone
// who is not already a participant is rejected since organizers must be a
// subset of participants.
func (s *EventService) AddOrganizer(ctx context.Context, actorID, eventID, userID string) error {
	_, roles, err := s.loadVisible(ctx, actorID, eventID)
	if err != nil {
		return err
	}
	if !policy.CanManageEvent(roles) {
		return apperror.Forbidden("organizer permissions required")
	}

	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return err
	}
	if !policy.RolesForEvent(userID, roster).Has(policy.RoleParticipant) {
		return apperror.ValidationFailed("userId", "user must be a participant before becoming organizer")
	}

	if err := s.events.AddOrganizer(ctx, eventID, userID); err != nil {
		return err
	}
	s.logger.Info("organizer added",
		slog.String("eventID", eventID), slog.String("userID", userID))
	return nil
}

// RemoveOrganizer demotes an organizer. Organizer-only; removing the last
// organizer is rejected. Demoting a non-organizer is a no-op.
func (s *EventService) RemoveOrganizer(ctx context.Context, actorID, eventID, userID string) error {
	_, roles, err := s.loadVisible(ctx, actorID, eventID)
	if err != nil {
		return err
	}
	if !policy.CanManageEvent(roles) {
		return apperror.Forbidden("organizer permissions required")
	}

	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return err
	}
	if !policy.RolesForEvent(userID, roster).Has(policy.RoleOrganizer) {
		return nil
	}
	if err := policy.CanRemoveOrganizer(len(roster.Organizers)); err != nil {
		return err
	}

	if err := s.events.RemoveOrganizer(ctx, eventID, userID); err != nil {
		return err
	}
	s.logger.Info("organizer removed",
		slog.String("eventID", eventID), slog.String("userID", userID))
	return nil
}

// InviteGroupMembers enrolls every member of the hosting group as a
// participant. Organizer-only; meaningless for standalone events.
func (s *EventService) InviteGroupMembers(ctx context.Context, actorID, eventID string) error {
	event, roles, err := s.loadVisible(ctx, actorID, eventID)
	if err != nil {
		return err
	}
	if !policy.CanManageEvent(roles) {
		return apperror.Forbidden("organizer permissions required")
	}
	if event.GroupID == "" {
		return apperror.ValidationFailed("groupId", "event is not hosted by a group")
	}

	roster, err := s.groups.GroupRoster(ctx, event.GroupID)
	if err != nil {
		return err
	}
	if err := s.events.AddParticipants(ctx, eventID, roster.Members); err != nil {
		return err
	}

	s.logger.Info("group members invited",
		slog.String("eventID", eventID),
		slog.String("groupID", event.GroupID),
		slog.Int("count", len(roster.Members)),
	)
	return nil
}

// loadVisible fetches an event, resolves the caller's roles and enforces
// visibility in one step.
func (s *EventService) loadVisible(ctx context.Context, userID, eventID string) (*model.Event, policy.RoleSet, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	roles := policy.RolesForEvent(userID, roster)
	if !policy.CanViewEvent(roles, event.Public) {
		return nil, nil, apperror.NotFound("event")
	}
	return event, roles, nil
}
