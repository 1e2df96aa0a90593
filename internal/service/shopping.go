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

// ShoppingService orchestrates event shopping lists. The whole feature is
// gated on the event's ShoppingListEnabled flag; item names are unique per
// event after normalization, backed by a unique index in the store.
type ShoppingService struct {
	items  repository.ShoppingRepository
	events repository.EventRepository
	logger *slog.Logger
}

// NewShoppingService creates a ShoppingService.
func NewShoppingService(items repository.ShoppingRepository, events repository.EventRepository, logger *slog.Logger) *ShoppingService {
	return &ShoppingService{items: items, events: events, logger: logger}
}

// ShoppingItemInput carries the creatable/updatable item fields.
type ShoppingItemInput struct {
	Name        string
	Quantity    *int
	ArrivalTime *time.Time
}

// CreateItem adds an entry to the list. Participants and organizers only;
// a name that normalizes to an existing one is a Conflict.
func (s *ShoppingService) CreateItem(ctx context.Context, actorID, eventID string, in ShoppingItemInput) (*model.ShoppingItem, error) {
	_, roles, err := s.loadList(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanContribute(roles) {
		return nil, apperror.Forbidden("only participants can add shopping items")
	}

	name := strings.TrimSpace(in.Name)
	if policy.NormalizeName(name) == "" {
		return nil, apperror.ValidationFailed("name", "item name is required")
	}
	quantity := 1
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, apperror.ValidationFailed("quantity", "quantity must be positive")
		}
		quantity = *in.Quantity
	}

	item := &model.ShoppingItem{
		EventID:     eventID,
		CreatorID:   actorID,
		Name:        name,
		Quantity:    quantity,
		ArrivalTime: in.ArrivalTime,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("shopping item created",
		slog.String("itemID", item.ID), slog.String("eventID", eventID))
	return item, nil
}

// ListItems returns the event's shopping list. Participants and organizers
// only.
func (s *ShoppingService) ListItems(ctx context.Context, actorID, eventID string) ([]model.ShoppingItem, error) {
	_, roles, err := s.loadList(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanContribute(roles) {
		return nil, apperror.Forbidden("only participants can view the shopping list")
	}
	return s.items.ListItems(ctx, eventID)
}

// UpdateItem changes an item. Allowed for its creator or an organizer.
// Renaming onto an existing normalized name is a Conflict.
func (s *ShoppingService) UpdateItem(ctx context.Context, actorID, eventID, itemID string, in ShoppingItemInput) (*model.ShoppingItem, error) {
	_, roles, err := s.loadList(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, eventID, itemID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditShoppingItem(roles, actorID, item.CreatorID) {
		return nil, apperror.Forbidden("only the creator or an organizer can edit this item")
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		if policy.NormalizeName(name) == "" {
			return nil, apperror.ValidationFailed("name", "item name is required")
		}
		item.Name = name
	}
	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, apperror.ValidationFailed("quantity", "quantity must be positive")
		}
		item.Quantity = *in.Quantity
	}
	if in.ArrivalTime != nil {
		item.ArrivalTime = in.ArrivalTime
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("shopping item updated",
		slog.String("itemID", item.ID), slog.String("eventID", eventID))
	return item, nil
}

// DeleteItem removes an item. Allowed for its creator or an organizer.
func (s *ShoppingService) DeleteItem(ctx context.Context, actorID, eventID, itemID string) error {
	_, roles, err := s.loadList(ctx, actorID, eventID)
	if err != nil {
		return err
	}

	item, err := s.items.GetItem(ctx, eventID, itemID)
	if err != nil {
		return err
	}
	if !policy.CanEditShoppingItem(roles, actorID, item.CreatorID) {
		return apperror.Forbidden("only the creator or an organizer can delete this item")
	}

	if err := s.items.DeleteItem(ctx, eventID, itemID); err != nil {
		return err
	}
	s.logger.Info("shopping item deleted",
		slog.String("itemID", itemID), slog.String("eventID", eventID))
	return nil
}

// loadList resolves the event, enforces visibility and the feature gate.
func (s *ShoppingService) loadList(ctx context.Context, userID, eventID string) (*model.Event, policy.RoleSet, error) {
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
	if !event.ShoppingListEnabled {
		return nil, nil, apperror.ValidationFailed("eventId", "shopping list is not enabled for this event")
	}
	return event, roles, nil
}
