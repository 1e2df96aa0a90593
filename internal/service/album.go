package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// AlbumService orchestrates albums, photos and photo comments. All three
// inherit the owning event's visibility; all writes are gated on being a
// participant or organizer of that event.
type AlbumService struct {
	albums repository.AlbumRepository
	events repository.EventRepository
	logger *slog.Logger
}

// NewAlbumService creates an AlbumService.
func NewAlbumService(albums repository.AlbumRepository, events repository.EventRepository, logger *slog.Logger) *AlbumService {
	return &AlbumService{albums: albums, events: events, logger: logger}
}

// CreateAlbum makes an album under an event.
func (s *AlbumService) CreateAlbum(ctx context.Context, actorID, eventID, title, description string) (*model.Album, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "album title is required")
	}

	roles, err := s.eventRoles(ctx, actorID, eventID)
	if err != nil {
		return nil, err
	}
	if !policy.CanContribute(roles) {
		return nil, apperror.Forbidden("only participants can create albums")
	}

	album := &model.Album{
		EventID:     eventID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	if err := s.albums.CreateAlbum(ctx, album); err != nil {
		return nil, err
	}

	s.logger.Info("album created",
		slog.String("albumID", album.ID), slog.String("eventID", eventID))
	return album, nil
}

// GetAlbum returns an album if the viewer may see its event.
func (s *AlbumService) GetAlbum(ctx context.Context, viewerID, albumID string) (*model.Album, error) {
	album, _, err := s.loadAlbum(ctx, viewerID, albumID)
	return album, err
}

// ListAlbumsByEvent returns the albums of a visible event.
func (s *AlbumService) ListAlbumsByEvent(ctx context.Context, viewerID, eventID string, limit, offset int) ([]model.Album, error) {
	if _, err := s.eventRoles(ctx, viewerID, eventID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset, DefaultListLimit, MaxListLimit)
	return s.albums.ListAlbumsByEvent(ctx, eventID, repository.ListOptions{Limit: limit, Offset: offset})
}

// AddPhoto uploads a photo into an album.
func (s *AlbumService) AddPhoto(ctx context.Context, actorID, albumID, url, caption string) (*model.Photo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperror.ValidationFailed("url", "photo url is required")
	}

	album, roles, err := s.loadAlbum(ctx, actorID, albumID)
	if err != nil {
		return nil, err
	}
	if !policy.CanContribute(roles) {
		return nil, apperror.Forbidden("only participants can upload photos")
	}

	photo := &model.Photo{
		AlbumID:    album.ID,
		UploaderID: actorID,
		URL:        url,
		Caption:    strings.TrimSpace(caption),
	}
	if err := s.albums.CreatePhoto(ctx, photo); err != nil {
		return nil, err
	}

	s.logger.Info("photo added",
		slog.String("photoID", photo.ID), slog.String("albumID", album.ID))
	return photo, nil
}

// ListPhotos returns an album's photos.
func (s *AlbumService) ListPhotos(ctx context.Context, viewerID, albumID string, limit, offset int) ([]model.Photo, error) {
	if _, _, err := s.loadAlbum(ctx, viewerID, albumID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset, DefaultListLimit, MaxListLimit)
	return s.albums.ListPhotos(ctx, albumID, repository.ListOptions{Limit: limit, Offset: offset})
}

// CommentPhoto leaves a comment on a photo.
func (s *AlbumService) CommentPhoto(ctx context.Context, actorID, photoID, content string) (*model.PhotoComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}

	_, roles, err := s.loadPhoto(ctx, actorID, photoID)
	if err != nil {
		return nil, err
	}
	if !policy.CanContribute(roles) {
		return nil, apperror.Forbidden("only participants can comment on photos")
	}

	comment := &model.PhotoComment{
		PhotoID:  photoID,
		AuthorID: actorID,
		Content:  content,
	}
	if err := s.albums.CreatePhotoComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("photo comment added",
		slog.String("commentID", comment.ID), slog.String("photoID", photoID))
	return comment, nil
}

// ListPhotoComments returns a photo's comments, oldest first.
func (s *AlbumService) ListPhotoComments(ctx context.Context, viewerID, photoID string, limit, offset int) ([]model.PhotoComment, error) {
	if _, _, err := s.loadPhoto(ctx, viewerID, photoID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset, DefaultListLimit, MaxListLimit)
	return s.albums.ListPhotoComments(ctx, photoID, repository.ListOptions{Limit: limit, Offset: offset})
}

// eventRoles resolves the caller's roles on an event and enforces its
// visibility.
func (s *AlbumService) eventRoles(ctx context.Context, userID, eventID string) (policy.RoleSet, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.events.EventRoster(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roles := policy.RolesForEvent(userID, roster)
	if !policy.CanViewEventContent(roles, event.Public) {
		return nil, apperror.NotFound("event")
	}
	return roles, nil
}

func (s *AlbumService) loadAlbum(ctx context.Context, userID, albumID string) (*model.Album, policy.RoleSet, error) {
	album, err := s.albums.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, nil, err
	}
	roles, err := s.eventRoles(ctx, userID, album.EventID)
	if err != nil {
		// Hide the album when its event is hidden.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.NotFound("album")
		}
		return nil, nil, err
	}
	return album, roles, nil
}

func (s *AlbumService) loadPhoto(ctx context.Context, userID, photoID string) (*model.Photo, policy.RoleSet, error) {
	photo, err := s.albums.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}
	_, roles, err := s.loadAlbum(ctx, userID, photo.AlbumID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.NotFound("photo")
		}
		return nil, nil, err
	}
	return photo, roles, nil
}
