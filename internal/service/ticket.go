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

// TicketService orchestrates ticket types and purchases. Ticketing only
// exists on public events, so type listing and purchasing are open to
// anonymous callers; the ledger rules (one purchase per email per event,
// never oversell) are enforced atomically by the store.
type TicketService struct {
	tickets repository.TicketRepository
	events  repository.EventRepository
	logger  *slog.Logger
}

// NewTicketService creates a TicketService.
func NewTicketService(tickets repository.TicketRepository, events repository.EventRepository, logger *slog.Logger) *TicketService {
	return &TicketService{tickets: tickets, events: events, logger: logger}
}

// TicketTypeInput carries the creatable ticket type fields. Amount is in
// the smallest currency unit.
type TicketTypeInput struct {
	Name          string
	Amount        int64
	QuantityLimit int
}

// PurchaseInput carries the buyer details for one purchase.
type PurchaseInput struct {
	TicketTypeID string
	Email        string
	FirstName    string
	LastName     string
	Address      string
}

// CreateType adds a ticket category to a public event. Organizer-only.
func (s *TicketService) CreateType(ctx context.Context, actorID, eventID string, in TicketTypeInput) (*model.TicketType, error) {
	event, roles, err := s.loadEvent(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(roles) {
		return nil, apperror.Forbidden("only organizers can create ticket types")
	}
	if err := policy.ValidateTicketTypeEvent(event.Public); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "ticket type name is required")
	}
	if in.Amount < 0 {
		return nil, apperror.ValidationFailed("amount", "amount cannot be negative")
	}
	if in.QuantityLimit <= 0 {
		return nil, apperror.ValidationFailed("quantityLimit", "quantity limit must be positive")
	}

	t := &model.TicketType{
		EventID:       eventID,
		Name:          name,
		Amount:        in.Amount,
		QuantityLimit: in.QuantityLimit,
	}
	if err := s.tickets.CreateTicketType(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("ticket type created",
		slog.String("ticketTypeID", t.ID), slog.String("eventID", eventID))
	return t, nil
}

// ListTypes returns the ticket types of a visible event.
func (s *TicketService) ListTypes(ctx context.Context, viewerID, eventID string) ([]model.TicketType, error) {
	if _, _, err := s.loadEvent(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	return s.tickets.ListTicketTypes(ctx, eventID)
}

// Purchase buys one ticket. No authentication: buyers are identified by
// email. The duplicate-email and sold-out rules both come back as Conflict
// from the store's single-transaction purchase path.
func (s *TicketService) Purchase(ctx context.Context, eventID string, in PurchaseInput) (*model.TicketPurchase, error) {
	// Anonymous visibility: only public events sell tickets anyway.
	event, _, err := s.loadEvent(ctx, policy.Anonymous, eventID)
	if err != nil {
		return nil, err
	}
	if err := policy.ValidateTicketTypeEvent(event.Public); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := policy.ValidateEmail(email); err != nil {
		return nil, err
	}
	if in.TicketTypeID == "" {
		return nil, apperror.ValidationFailed("ticketTypeId", "ticket type is required")
	}
	// Scoped lookup: a type ID from another event is NotFound here.
	if _, err := s.tickets.GetTicketType(ctx, eventID, in.TicketTypeID); err != nil {
		return nil, err
	}

	// The store assigns the uuid reference and timestamps inside the
	// purchase transaction.
	p := &model.TicketPurchase{
		EventID:      eventID,
		TicketTypeID: in.TicketTypeID,
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Address:      strings.TrimSpace(in.Address),
	}
	if err := s.tickets.PurchaseTicket(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("ticket purchased",
		slog.String("eventID", eventID),
		slog.String("ticketTypeID", in.TicketTypeID),
		slog.String("reference", p.Reference),
	)
	return p, nil
}

// ListPurchases returns the sales ledger of an event. Organizer-only.
func (s *TicketService) ListPurchases(ctx context.Context, actorID, eventID string) ([]model.TicketPurchase, error) {
	_, roles, err := s.loadEvent(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageEvent(roles) {
		return nil, apperror.Forbidden("only organizers can view purchases")
	}
	return s.tickets.ListPurchases(ctx, eventID)
}

func (s *TicketService) loadEvent(ctx context.Context, userID, eventID string) (*model.Event, policy.RoleSet, error) {
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
