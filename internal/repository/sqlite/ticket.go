package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/repository"
)

var _ repository.TicketRepository = (*DB)(nil)

// CreateTicketType inserts a purchasable ticket category.
func (db *DB) CreateTicketType(ctx context.Context, t *model.TicketType) error {
	t.ID = xid.New().String()
	t.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ticket_types (id, event_id, name, amount, quantity_limit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.EventID, t.Name, t.Amount, t.QuantityLimit, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating ticket type: %w", err)
	}
	return nil
}

// GetTicketType fetches a ticket type scoped to its event; an ID from
// another event is NotFound.
func (db *DB) GetTicketType(ctx context.Context, eventID, typeID string) (*model.TicketType, error) {
	var t model.TicketType
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, event_id, name, amount, quantity_limit, created_at
		 FROM ticket_types WHERE id = ? AND event_id = ?`,
		typeID, eventID,
	).Scan(&t.ID, &t.EventID, &t.Name, &t.Amount, &t.QuantityLimit, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("ticket type")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching ticket type: %w", err)
	}
	return &t, nil
}

// ListTicketTypes returns an event's ticket types.
func (db *DB) ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, name, amount, quantity_limit, created_at
		 FROM ticket_types WHERE event_id = ? ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ticket types: %w", err)
	}
	defer rows.Close()

	types := []model.TicketType{}
	for rows.Next() {
		var t model.TicketType
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &t.Amount, &t.QuantityLimit, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ticket type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// PurchaseTicket commits one sale atomically. Everything happens inside a
// single transaction: the per-event email check, the sold-count check and
// the insert. Transactions begin as writers (_txlock=immediate in the DSN),
// so racing buyers queue on the busy timeout rather than aborting with
// SQLITE_BUSY; the loser re-reads after the winner commits and gets the
// sold-out Conflict. The UNIQUE(event_id, email) index backs the email
// check against writers on other connections.
func (db *DB) PurchaseTicket(ctx context.Context, p *model.TicketPurchase) error {
	p.ID = xid.New().String()
	p.Reference = uuid.NewString()
	p.PurchasedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	var limit int
	err = tx.QueryRowContext(ctx,
		`SELECT quantity_limit FROM ticket_types WHERE id = ? AND event_id = ?`,
		p.TicketTypeID, p.EventID,
	).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("ticket type")
	}
	if err != nil {
		return fmt.Errorf("sqlite: fetching ticket type: %w", err)
	}

	var sold int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ticket_purchases WHERE ticket_type_id = ?`,
		p.TicketTypeID,
	).Scan(&sold); err != nil {
		return fmt.Errorf("sqlite: counting purchases: %w", err)
	}
	if sold >= limit {
		return apperror.Conflict("ticket type is sold out")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ticket_purchases (id, event_id, ticket_type_id, email,
		                               first_name, last_name, address, reference, purchased_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.EventID, p.TicketTypeID, p.Email,
		p.FirstName, p.LastName, p.Address, p.Reference, p.PurchasedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("this email already purchased a ticket for this event")
		}
		return fmt.Errorf("sqlite: recording purchase: %w", err)
	}

	return tx.Commit()
}

// ListPurchases returns an event's purchases across all ticket types,
// oldest first.
func (db *DB) ListPurchases(ctx context.Context, eventID string) ([]model.TicketPurchase, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, ticket_type_id, email, first_name, last_name,
		        address, reference, purchased_at
		 FROM ticket_purchases WHERE event_id = ? ORDER BY purchased_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing purchases: %w", err)
	}
	defer rows.Close()

	purchases := []model.TicketPurchase{}
	for rows.Next() {
		var p model.TicketPurchase
		if err := rows.Scan(&p.ID, &p.EventID, &p.TicketTypeID, &p.Email,
			&p.FirstName, &p.LastName, &p.Address, &p.Reference, &p.PurchasedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
