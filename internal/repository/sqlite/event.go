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
	"github.com/tribu-app/tribu/internal/repository"
)

var _ repository.EventRepository = (*DB)(nil)

const eventColumns = `id, name, description, start_date, end_date, location,
	cover_url, is_public, group_id, shopping_list_enabled, created_at`

// CreateEvent inserts the event and enrolls the creator as organizer and
// participant in one transaction, so a committed event always satisfies
// |organizers| >= 1.
func (db *DB) CreateEvent(ctx context.Context, event *model.Event, creatorID string) error {
	event.ID = xid.New().String()
	event.CreatedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (id, name, description, start_date, end_date, location,
		                     cover_url, is_public, group_id, shopping_list_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Name, event.Description, event.StartDate, event.EndDate,
		event.Location, event.CoverURL, event.Public, nullable(event.GroupID),
		event.ShoppingListEnabled, event.CreatedAt,
	); err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	for _, table := range []string{"event_organizers", "event_participants"} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (event_id, user_id) VALUES (?, ?)`,
			event.ID, creatorID,
		); err != nil {
			return fmt.Errorf("sqlite: enrolling creator in %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// GetEvent fetches one event by ID.
func (db *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("event")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching event: %w", err)
	}
	return e, nil
}

// UpdateEvent rewrites the mutable event columns.
func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE events SET name = ?, description = ?, start_date = ?, end_date = ?,
		        location = ?, cover_url = ?, is_public = ?, shopping_list_enabled = ?
		 WHERE id = ?`,
		event.Name, event.Description, event.StartDate, event.EndDate,
		event.Location, event.CoverURL, event.Public, event.ShoppingListEnabled,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("event")
	}
	return nil
}

// ListEvents returns public events plus, for an authenticated viewer, the
// private events they participate in or organize. Newest start date first.
func (db *DB) ListEvents(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_public = 1`
	args := []any{}
	if viewerID != "" {
		query = `SELECT ` + eventColumns + ` FROM events
		 WHERE is_public = 1
		    OR id IN (SELECT event_id FROM event_participants WHERE user_id = ?)
		    OR id IN (SELECT event_id FROM event_organizers WHERE user_id = ?)`
		args = append(args, viewerID, viewerID)
	}
	query += ` ORDER BY start_date DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// EventRoster loads the membership snapshot used for role resolution,
// including the hosting group's members for group-linked events.
func (db *DB) EventRoster(ctx context.Context, eventID string) (model.EventRoster, error) {
	participants, err := db.roster(ctx,
		`SELECT user_id FROM event_participants WHERE event_id = ?`, eventID)
	if err != nil {
		return model.EventRoster{}, err
	}
	organizers, err := db.roster(ctx,
		`SELECT user_id FROM event_organizers WHERE event_id = ?`, eventID)
	if err != nil {
		return model.EventRoster{}, err
	}
	groupMembers, err := db.roster(ctx,
		`SELECT gm.user_id FROM group_members gm
		 JOIN events e ON e.group_id = gm.group_id
		 WHERE e.id = ?`, eventID)
	if err != nil {
		return model.EventRoster{}, err
	}
	return model.EventRoster{
		Participants: participants,
		Organizers:   organizers,
		GroupMembers: groupMembers,
	}, nil
}

// ListParticipants returns full user rows for the event's participants.
func (db *DB) ListParticipants(ctx context.Context, eventID string) ([]model.User, error) {
	return db.userJoin(ctx,
		`SELECT u.id, u.email, u.full_name, u.password_hash, u.created_at
		 FROM users u JOIN event_participants ep ON ep.user_id = u.id
		 WHERE ep.event_id = ?`, eventID)
}

// ListOrganizers returns full user rows for the event's organizers.
func (db *DB) ListOrganizers(ctx context.Context, eventID string) ([]model.User, error) {
	return db.userJoin(ctx,
		`SELECT u.id, u.email, u.full_name, u.password_hash, u.created_at
		 FROM users u JOIN event_organizers eo ON eo.user_id = u.id
		 WHERE eo.event_id = ?`, eventID)
}

// AddParticipant enrolls a user; joining twice is a no-op.
func (db *DB) AddParticipant(ctx context.Context, eventID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO event_participants (event_id, user_id) VALUES (?, ?)`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding participant: %w", err)
	}
	return nil
}

// AddParticipants bulk-enrolls users (group invitations), skipping any who
// already participate.
func (db *DB) AddParticipants(ctx context.Context, eventID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_participants (event_id, user_id) VALUES (?, ?)`,
			eventID, userID,
		); err != nil {
			return fmt.Errorf("sqlite: adding participant %s: %w", userID, err)
		}
	}
	return tx.Commit()
}

// RemoveParticipant drops a participation row; absent rows are a no-op.
func (db *DB) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing participant: %w", err)
	}
	return nil
}

// AddOrganizer promotes a user; promoting an existing organizer is a no-op.
func (db *DB) AddOrganizer(ctx context.Context, eventID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO event_organizers (event_id, user_id) VALUES (?, ?)`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding organizer: %w", err)
	}
	return nil
}

// RemoveOrganizer demotes a user. The last-organizer check happens in the
// service against the roster before this is called.
func (db *DB) RemoveOrganizer(ctx context.Context, eventID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM event_organizers WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing organizer: %w", err)
	}
	return nil
}

// scanEvent reads one event row; group_id round-trips through a NullString
// so standalone events keep an empty GroupID.
func scanEvent(scan func(...any) error) (*model.Event, error) {
	var e model.Event
	var groupID sql.NullString
	err := scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate,
		&e.Location, &e.CoverURL, &e.Public, &groupID, &e.ShoppingListEnabled,
		&e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.GroupID = groupID.String
	return &e, nil
}

// nullable maps an empty string to NULL for optional foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
