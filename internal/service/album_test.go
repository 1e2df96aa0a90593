package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
)

func newTestAlbumService() (*AlbumService, *mockAlbumRepo, *mockEventRepo, *mockUserRepo) {
	events := newMockEventRepo(nil)
	albums := newMockAlbumRepo()
	users := newMockUserRepo()
	return NewAlbumService(albums, events, testLogger()), albums, events, users
}

func TestAlbumCreate_ParticipantsOnly(t *testing.T) {
	svc, _, events, users := newTestAlbumService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	event := &model.Event{Name: "BBQ", Public: true}
	if err := events.CreateEvent(ctx, event, alice.ID); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	// Bob can view the public event but has not joined.
	if _, err := svc.CreateAlbum(ctx, bob.ID, event.ID, "Photos", ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("CreateAlbum() as non-participant: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.CreateAlbum(ctx, alice.ID, event.ID, "  ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("CreateAlbum() blank title: error = %v, want ErrValidation", err)
	}

	album, err := svc.CreateAlbum(ctx, alice.ID, event.ID, " Photos ", " day one ")
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}
	if album.Title != "Photos" || album.Description != "day one" {
		t.Errorf("album = %+v, want trimmed fields", album)
	}
}

func TestAlbumPhotoFlow(t *testing.T) {
	svc, _, events, users := newTestAlbumService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	event := &model.Event{Name: "BBQ", Public: true}
	if err := events.CreateEvent(ctx, event, alice.ID); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	events.participants[event.ID][bob.ID] = true

	album, err := svc.CreateAlbum(ctx, alice.ID, event.ID, "Photos", "")
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}

	if _, err := svc.AddPhoto(ctx, bob.ID, album.ID, "  ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("AddPhoto() blank url: error = %v, want ErrValidation", err)
	}
	photo, err := svc.AddPhoto(ctx, bob.ID, album.ID, "https://cdn.example.com/1.jpg", "sunset")
	if err != nil {
		t.Fatalf("AddPhoto() error = %v", err)
	}
	if photo.UploaderID != bob.ID {
		t.Errorf("UploaderID = %q, want %q", photo.UploaderID, bob.ID)
	}

	comment, err := svc.CommentPhoto(ctx, alice.ID, photo.ID, "nice light")
	if err != nil {
		t.Fatalf("CommentPhoto() error = %v", err)
	}
	comments, err := svc.ListPhotoComments(ctx, bob.ID, photo.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListPhotoComments() error = %v", err)
	}
	if len(comments) != 1 || comments[0].ID != comment.ID {
		t.Errorf("comments = %+v", comments)
	}
}

// Albums on a hidden event read as missing, all the way down to photos.
func TestAlbumHiddenEvent(t *testing.T) {
	svc, _, events, users := newTestAlbumService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	event := &model.Event{Name: "Private", Public: false}
	if err := events.CreateEvent(ctx, event, alice.ID); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	album, err := svc.CreateAlbum(ctx, alice.ID, event.ID, "Photos", "")
	if err != nil {
		t.Fatalf("CreateAlbum() error = %v", err)
	}
	photo, err := svc.AddPhoto(ctx, alice.ID, album.ID, "https://cdn.example.com/1.jpg", "")
	if err != nil {
		t.Fatalf("AddPhoto() error = %v", err)
	}

	if _, err := svc.GetAlbum(ctx, bob.ID, album.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAlbum() as outsider: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.CommentPhoto(ctx, bob.ID, photo.ID, "hi"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("CommentPhoto() as outsider: error = %v, want ErrNotFound", err)
	}
}
