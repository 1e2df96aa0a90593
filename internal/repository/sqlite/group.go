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

var _ repository.GroupRepository = (*DB)(nil)

const groupColumns = `id, name, description, icon_url, cover_url, kind,
	allow_member_posts, allow_member_events, created_at`

// CreateGroup inserts the group and enrolls the creator as member and admin
// in one transaction, so a committed group always satisfies |admins| >= 1.
func (db *DB) CreateGroup(ctx context.Context, group *model.Group, creatorID string) error {
	group.ID = xid.New().String()
	group.CreatedAt = time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, icon_url, cover_url, kind,
		                     allow_member_posts, allow_member_events, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.IconURL, group.CoverURL,
		group.Kind, group.AllowMemberPosts, group.AllowMemberEvents, group.CreatedAt,
	); err != nil {
		return fmt.Errorf("sqlite: creating group: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES (?, ?)`,
		group.ID, creatorID,
	); err != nil {
		return fmt.Errorf("sqlite: enrolling creator as member: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO group_admins (group_id, user_id) VALUES (?, ?)`,
		group.ID, creatorID,
	); err != nil {
		return fmt.Errorf("sqlite: enrolling creator as admin: %w", err)
	}

	return tx.Commit()
}

// GetGroup fetches one group by ID.
func (db *DB) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	var g model.Group
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &g.Description, &g.IconURL, &g.CoverURL, &g.Kind,
		&g.AllowMemberPosts, &g.AllowMemberEvents, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("group")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching group: %w", err)
	}
	return &g, nil
}

// ListGroups returns groups in creation order. Secret-group filtering is a
// policy concern and happens in the service layer, which knows the viewer.
func (db *DB) ListGroups(ctx context.Context, opts repository.ListOptions) ([]model.Group, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM groups ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.IconURL, &g.CoverURL,
			&g.Kind, &g.AllowMemberPosts, &g.AllowMemberEvents, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateGroup persists settings changes on an existing group.
func (db *DB) UpdateGroup(ctx context.Context, group *model.Group) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, icon_url = ?, cover_url = ?,
		        kind = ?, allow_member_posts = ?, allow_member_events = ?
		 WHERE id = ?`,
		group.Name, group.Description, group.IconURL, group.CoverURL,
		group.Kind, group.AllowMemberPosts, group.AllowMemberEvents, group.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("group")
	}
	return nil
}

// GroupRoster loads the membership snapshot used for role resolution.
func (db *DB) GroupRoster(ctx context.Context, groupID string) (model.GroupRoster, error) {
	members, err := db.roster(ctx,
		`SELECT user_id FROM group_members WHERE group_id = ?`, groupID)
	if err != nil {
		return model.GroupRoster{}, err
	}
	admins, err := db.roster(ctx,
		`SELECT user_id FROM group_admins WHERE group_id = ?`, groupID)
	if err != nil {
		return model.GroupRoster{}, err
	}
	return model.GroupRoster{Members: members, Admins: admins}, nil
}

// ListGroupMembers returns full user rows for the group's members.
func (db *DB) ListGroupMembers(ctx context.Context, groupID string) ([]model.User, error) {
	return db.userJoin(ctx,
		`SELECT u.id, u.email, u.full_name, u.password_hash, u.created_at
		 FROM users u JOIN group_members gm ON gm.user_id = u.id
		 WHERE gm.group_id = ?`, groupID)
}

// ListGroupAdmins returns full user rows for the group's admins.
func (db *DB) ListGroupAdmins(ctx context.Context, groupID string) ([]model.User, error) {
	return db.userJoin(ctx,
		`SELECT u.id, u.email, u.full_name, u.password_hash, u.created_at
		 FROM users u JOIN group_admins ga ON ga.user_id = u.id
		 WHERE ga.group_id = ?`, groupID)
}

// AddGroupMember enrolls a user; adding an existing member is a no-op.
func (db *DB) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding group member: %w", err)
	}
	return nil
}

// RemoveGroupMember drops the membership row and, with it, any admin role —
// an admin who is no longer a member would break the admins ⊆ members
// invariant.
func (db *DB) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("sqlite: removing group member: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_admins WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	); err != nil {
		return fmt.Errorf("sqlite: removing group admin role: %w", err)
	}
	return tx.Commit()
}

// AddGroupAdmin promotes a user; promoting an existing admin is a no-op.
func (db *DB) AddGroupAdmin(ctx context.Context, groupID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_admins (group_id, user_id) VALUES (?, ?)`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding group admin: %w", err)
	}
	return nil
}

// RemoveGroupAdmin demotes a user. The last-admin check happens in the
// service against the roster before this is called.
func (db *DB) RemoveGroupAdmin(ctx context.Context, groupID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM group_admins WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing group admin: %w", err)
	}
	return nil
}

// roster collects a single column of user IDs.
func (db *DB) roster(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading roster: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning roster: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// userJoin collects full user rows from a membership join.
func (db *DB) userJoin(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
