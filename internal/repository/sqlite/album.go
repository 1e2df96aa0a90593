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

var _ repository.AlbumRepository = (*DB)(nil)

// CreateAlbum inserts an album under its event.
func (db *DB) CreateAlbum(ctx context.Context, a *model.Album) error {
	a.ID = xid.New().String()
	a.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO albums (id, event_id, title, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.EventID, a.Title, a.Description, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating album: %w", err)
	}
	return nil
}

// GetAlbum fetches one album by ID.
func (db *DB) GetAlbum(ctx context.Context, id string) (*model.Album, error) {
	var a model.Album
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, event_id, title, description, created_at FROM albums WHERE id = ?`, id,
	).Scan(&a.ID, &a.EventID, &a.Title, &a.Description, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("album")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching album: %w", err)
	}
	return &a, nil
}

// ListAlbumsByEvent returns an event's albums, newest first.
func (db *DB) ListAlbumsByEvent(ctx context.Context, eventID string, opts repository.ListOptions) ([]model.Album, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, event_id, title, description, created_at
		 FROM albums WHERE event_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		eventID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing albums: %w", err)
	}
	defer rows.Close()

	albums := []model.Album{}
	for rows.Next() {
		var a model.Album
		if err := rows.Scan(&a.ID, &a.EventID, &a.Title, &a.Description, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning album: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// CreatePhoto inserts a photo into an album.
func (db *DB) CreatePhoto(ctx context.Context, p *model.Photo) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO photos (id, album_id, uploader_id, url, caption, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.AlbumID, p.UploaderID, p.URL, p.Caption, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating photo: %w", err)
	}
	return nil
}

// GetPhoto fetches one photo by ID.
func (db *DB) GetPhoto(ctx context.Context, id string) (*model.Photo, error) {
	var p model.Photo
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, album_id, uploader_id, url, caption, created_at FROM photos WHERE id = ?`, id,
	).Scan(&p.ID, &p.AlbumID, &p.UploaderID, &p.URL, &p.Caption, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("photo")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetching photo: %w", err)
	}
	return &p, nil
}

// ListPhotos returns an album's photos, oldest first.
func (db *DB) ListPhotos(ctx context.Context, albumID string, opts repository.ListOptions) ([]model.Photo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, album_id, uploader_id, url, caption, created_at
		 FROM photos WHERE album_id = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		albumID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing photos: %w", err)
	}
	defer rows.Close()

	photos := []model.Photo{}
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.AlbumID, &p.UploaderID, &p.URL, &p.Caption, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// CreatePhotoComment inserts a comment on a photo.
func (db *DB) CreatePhotoComment(ctx context.Context, c *model.PhotoComment) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO photo_comments (id, photo_id, author_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PhotoID, c.AuthorID, c.Content, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating photo comment: %w", err)
	}
	return nil
}

// ListPhotoComments returns a photo's comments, oldest first.
func (db *DB) ListPhotoComments(ctx context.Context, photoID string, opts repository.ListOptions) ([]model.PhotoComment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, photo_id, author_id, content, created_at
		 FROM photo_comments WHERE photo_id = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		photoID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing photo comments: %w", err)
	}
	defer rows.Close()

	comments := []model.PhotoComment{}
	for rows.Next() {
		var c model.PhotoComment
		if err := rows.Scan(&c.ID, &c.PhotoID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning photo comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
