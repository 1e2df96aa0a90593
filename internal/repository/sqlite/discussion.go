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

var _ repository.DiscussionRepository = (*DB)(nil)

// CreateDiscussion inserts a discussion. The schema enforces parent
// exclusivity (CHECK) and one-discussion-per-parent (UNIQUE); a concurrent
// duplicate comes back as ErrConflict.
func (db *DB) CreateDiscussion(ctx context.Context, d *model.Discussion) error {
	d.ID = xid.New().String()
	d.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO discussions (id, group_id, event_id, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, nullable(d.GroupID), nullable(d.EventID), d.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a discussion already exists for this group or event")
		}
		return fmt.Errorf("sqlite: creating discussion: %w", err)
	}
	return nil
}

// GetDiscussion fetches one discussion by ID.
func (db *DB) GetDiscussion(ctx context.Context, id string) (*model.Discussion, error) {
	return db.getDiscussion(ctx, `WHERE id = ?`, id)
}

// GetDiscussionByGroup fetches the group's discussion, if one exists.
func (db *DB) GetDiscussionByGroup(ctx context.Context, groupID string) (*model.Discussion, error) {
	return db.getDiscussion(ctx, `WHERE group_id = ?`, groupID)
}

// GetDiscussionByEvent fetches the event's discussion, if one exists.
func (db *DB) GetDiscussionByEvent(ctx context.Context, eventID string) (*model.Discussion, error) {
	return db.getDiscussion(ctx, `WHERE event_id = ?`, eventID)
}

func (db *DB) getDiscussion(ctx context.Context, where string, arg any) (*model.Discussion, error) {
	var d model.Discussion
	var groupID, eventID sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, group_id, event_id, created_at FROM discussions `+where, arg,
	).Scan(&d.ID, &groupID, &eventID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("discussion")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching discussion: %w", err)
	}
	d.GroupID = groupID.String
	d.EventID = eventID.String
	return &d, nil
}

// CreateMessage inserts a message. Threading integrity is validated by the
// service before the insert.
func (db *DB) CreateMessage(ctx context.Context, m *model.Message) error {
	m.ID = xid.New().String()
	m.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, discussion_id, author_id, content, parent_message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.DiscussionID, m.AuthorID, m.Content, nullable(m.ParentMessageID), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating message: %w", err)
	}
	return nil
}

// GetMessage fetches a message scoped to its discussion; a message ID from
// another discussion is NotFound.
func (db *DB) GetMessage(ctx context.Context, discussionID, messageID string) (*model.Message, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, discussion_id, author_id, content, parent_message_id, created_at
		 FROM messages WHERE id = ? AND discussion_id = ?`,
		messageID, discussionID,
	)
	m, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("message")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching message: %w", err)
	}
	return m, nil
}

// GetMessageByID fetches a message without discussion scoping.
func (db *DB) GetMessageByID(ctx context.Context, messageID string) (*model.Message, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, discussion_id, author_id, content, parent_message_id, created_at
		 FROM messages WHERE id = ?`,
		messageID,
	)
	m, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("message")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching message: %w", err)
	}
	return m, nil
}

// ListMessages returns a discussion's messages, oldest first.
func (db *DB) ListMessages(ctx context.Context, discussionID string, opts repository.ListOptions) ([]model.Message, error) {
	return db.listMessages(ctx,
		`SELECT id, discussion_id, author_id, content, parent_message_id, created_at
		 FROM messages WHERE discussion_id = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		discussionID, opts.Limit, opts.Offset,
	)
}

// ListReplies returns the direct replies to a message, oldest first.
func (db *DB) ListReplies(ctx context.Context, discussionID, parentID string) ([]model.Message, error) {
	return db.listMessages(ctx,
		`SELECT id, discussion_id, author_id, content, parent_message_id, created_at
		 FROM messages WHERE discussion_id = ? AND parent_message_id = ?
		 ORDER BY created_at ASC`,
		discussionID, parentID,
	)
}

// DeleteMessage removes a message from its discussion. Replies go with it
// through the schema's cascade.
func (db *DB) DeleteMessage(ctx context.Context, discussionID, messageID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND discussion_id = ?`,
		messageID, discussionID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("message")
	}
	return nil
}

func (db *DB) listMessages(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func scanMessage(scan func(...any) error) (*model.Message, error) {
	var m model.Message
	var parentID sql.NullString
	err := scan(&m.ID, &m.DiscussionID, &m.AuthorID, &m.Content, &parentID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.ParentMessageID = parentID.String
	return &m, nil
}
