package model

import "time"

// Album groups photos under an event. Visibility is transitive: whoever can
// view the event can view its albums.
type Album struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Photo is an uploaded picture in an album.
type Photo struct {
	ID         string    `json:"id"`
	AlbumID    string    `json:"albumId"`
	UploaderID string    `json:"uploaderId"`
	URL        string    `json:"url"`
	Caption    string    `json:"caption,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PhotoComment is a comment left on a photo.
type PhotoComment struct {
	ID        string    `json:"id"`
	PhotoID   string    `json:"photoId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
