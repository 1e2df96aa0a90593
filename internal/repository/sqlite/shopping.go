package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

var _ repository.ShoppingRepository = (*DB)(nil)

// CreateItem inserts a shopping item. The UNIQUE(event_id, name_norm)
// index enforces per-event name uniqueness under the shared normalization
// rule; a duplicate comes back as ErrConflict.
func (db *DB) CreateItem(ctx context.Context, item *model.ShoppingItem) error {
	item.ID = xid.New().String()
	item.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shopping_items (id, event_id, creator_id, name, name_norm,
		                             quantity, arrival_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.EventID, item.CreatorID, item.Name,
		policy.NormalizeName(item.Name), item.Quantity, item.ArrivalTime, item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("this item already exists for this event")
		}
		return fmt.Errorf("sqlite: creating shopping item: %w", err)
	}
	return nil
}

// GetItem fetches an item scoped to its event.
func (db *DB) GetItem(ctx context.Context, eventID, itemID string) (*model.ShoppingItem, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, event_id, creator_id, name, quantity, arrival_time, created_at
		 FROM shopping_items WHERE id = ? AND event_id = ?`,
		itemID, eventID,
	)
	item, err := scanShoppingItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("shopping item")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching shopping item: %w", err)
	}
	return item, nil
}

// ListItems returns an event's shopping list, newest first.
func (db *DB) ListItems(ctx context.Context, eventID string) ([]model.ShoppingItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, creator_id, name, quantity, arrival_time, created_at
		 FROM shopping_items WHERE event_id = ? ORDER BY created_at DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing shopping items: %w", err)
	}
	defer rows.Close()

	items := []model.ShoppingItem{}
	for rows.Next() {
		item, err := scanShoppingItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem persists name/quantity/arrival changes, keeping name_norm in
// step with the name. A rename colliding with another item's normalized
// name is a Conflict.
func (db *DB) UpdateItem(ctx context.Context, item *model.ShoppingItem) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE shopping_items
		 SET name = ?, name_norm = ?, quantity = ?, arrival_time = ?
		 WHERE id = ? AND event_id = ?`,
		item.Name, policy.NormalizeName(item.Name), item.Quantity, item.ArrivalTime,
		item.ID, item.EventID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("this item already exists for this event")
		}
		return fmt.Errorf("sqlite: updating shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("shopping item")
	}
	return nil
}

// DeleteItem removes an item scoped to its event.
func (db *DB) DeleteItem(ctx context.Context, eventID, itemID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE id = ? AND event_id = ?`,
		itemID, eventID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting shopping item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("shopping item")
	}
	return nil
}

func scanShoppingItem(scan func(...any) error) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var arrival sql.NullTime
	err := scan(&item.ID, &item.EventID, &item.CreatorID, &item.Name,
		&item.Quantity, &arrival, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	if arrival.Valid {
		t := arrival.Time
		item.ArrivalTime = &t
	}
	return &item, nil
}
