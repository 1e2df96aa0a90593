// Package repository declares the persistence interfaces consumed by the
// service layer. The services program against these interfaces; the sqlite
// subpackage provides the real implementation and tests provide mocks.
package repository

import (
	"context"

	"github.com/tribu-app/tribu/internal/model"
)

// ListOptions carries pagination for list queries. Services clamp the
// values before they reach a repository.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists accounts. Create must fail with
// apperror.ErrConflict when the email is already registered — the unique
// index on email is the authoritative check.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// GroupRepository persists groups and their membership rosters.
type GroupRepository interface {
	// CreateGroup inserts the group and enrolls the creator as both member
	// and admin in the same transaction, so the |admins| >= 1 invariant
	// holds from the first committed state.
	CreateGroup(ctx context.Context, group *model.Group, creatorID string) error
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context, opts ListOptions) ([]model.Group, error)
	UpdateGroup(ctx context.Context, group *model.Group) error

	GroupRoster(ctx context.Context, groupID string) (model.GroupRoster, error)
	ListGroupMembers(ctx context.Context, groupID string) ([]model.User, error)
	ListGroupAdmins(ctx context.Context, groupID string) ([]model.User, error)
	AddGroupMember(ctx context.Context, groupID, userID string) error
	// RemoveGroupMember also drops the user's admin role, if any.
	RemoveGroupMember(ctx context.Context, groupID, userID string) error
	AddGroupAdmin(ctx context.Context, groupID, userID string) error
	RemoveGroupAdmin(ctx context.Context, groupID, userID string) error
}

// EventRepository persists events and their rosters.
type EventRepository interface {
	// CreateEvent enrolls the creator as organizer and participant in the
	// same transaction.
	CreateEvent(ctx context.Context, event *model.Event, creatorID string) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	// ListEvents returns public events plus, for an authenticated viewer,
	// private events where the viewer participates or organizes. Ordered by
	// start date, newest first.
	ListEvents(ctx context.Context, viewerID string, opts ListOptions) ([]model.Event, error)

	EventRoster(ctx context.Context, eventID string) (model.EventRoster, error)
	ListParticipants(ctx context.Context, eventID string) ([]model.User, error)
	ListOrganizers(ctx context.Context, eventID string) ([]model.User, error)
	// AddParticipant is idempotent: joining twice is not an error.
	AddParticipant(ctx context.Context, eventID, userID string) error
	AddParticipants(ctx context.Context, eventID string, userIDs []string) error
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	AddOrganizer(ctx context.Context, eventID, userID string) error
	RemoveOrganizer(ctx context.Context, eventID, userID string) error
}

// DiscussionRepository persists discussions and their messages.
type DiscussionRepository interface {
	CreateDiscussion(ctx context.Context, d *model.Discussion) error
	GetDiscussion(ctx context.Context, id string) (*model.Discussion, error)
	// GetDiscussionByGroup / GetDiscussionByEvent return ErrNotFound when
	// no discussion exists yet; the service auto-creates in that case.
	GetDiscussionByGroup(ctx context.Context, groupID string) (*model.Discussion, error)
	GetDiscussionByEvent(ctx context.Context, eventID string) (*model.Discussion, error)

	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, discussionID, messageID string) (*model.Message, error)
	// GetMessageByID looks a message up without scoping to a discussion;
	// the threading invariant needs the parent's actual discussion ID.
	GetMessageByID(ctx context.Context, messageID string) (*model.Message, error)
	ListMessages(ctx context.Context, discussionID string, opts ListOptions) ([]model.Message, error)
	ListReplies(ctx context.Context, discussionID, parentID string) ([]model.Message, error)
	DeleteMessage(ctx context.Context, discussionID, messageID string) error
}

// AlbumRepository persists albums, photos and photo comments.
type AlbumRepository interface {
	CreateAlbum(ctx context.Context, a *model.Album) error
	GetAlbum(ctx context.Context, id string) (*model.Album, error)
	ListAlbumsByEvent(ctx context.Context, eventID string, opts ListOptions) ([]model.Album, error)

	CreatePhoto(ctx context.Context, p *model.Photo) error
	GetPhoto(ctx context.Context, id string) (*model.Photo, error)
	ListPhotos(ctx context.Context, albumID string, opts ListOptions) ([]model.Photo, error)

	CreatePhotoComment(ctx context.Context, c *model.PhotoComment) error
	ListPhotoComments(ctx context.Context, photoID string, opts ListOptions) ([]model.PhotoComment, error)
}

// PollRepository persists polls and votes. CreateVote is half of the ledger
// guard: it must fail with apperror.ErrConflict when a vote already exists
// for the (question, user) pair, leaving the first vote untouched.
type PollRepository interface {
	// CreatePoll inserts the poll, its questions and options in one
	// transaction.
	CreatePoll(ctx context.Context, p *model.Poll) error
	GetPoll(ctx context.Context, id string) (*model.Poll, error)
	ListPollsByEvent(ctx context.Context, eventID string) ([]model.Poll, error)
	GetQuestion(ctx context.Context, questionID string) (*model.Question, error)
	// OptionInQuestion reports whether the option belongs to the question.
	OptionInQuestion(ctx context.Context, questionID, optionID string) (bool, error)

	CreateVote(ctx context.Context, v *model.Vote) error
	PollResults(ctx context.Context, pollID string) (*model.PollResults, error)
}

// TicketRepository persists ticket types and purchases. PurchaseTicket is
// the other half of the ledger guard: the per-event email uniqueness check,
// the sold-count check and the insert all happen inside one transaction, so
// concurrent purchases of the last ticket can never both succeed.
type TicketRepository interface {
	CreateTicketType(ctx context.Context, t *model.TicketType) error
	GetTicketType(ctx context.Context, eventID, typeID string) (*model.TicketType, error)
	ListTicketTypes(ctx context.Context, eventID string) ([]model.TicketType, error)

	PurchaseTicket(ctx context.Context, p *model.TicketPurchase) error
	ListPurchases(ctx context.Context, eventID string) ([]model.TicketPurchase, error)
}

// ShoppingRepository persists shopping items. CreateItem must fail with
// apperror.ErrConflict on a duplicate normalized name within the event.
type ShoppingRepository interface {
	CreateItem(ctx context.Context, item *model.ShoppingItem) error
	GetItem(ctx context.Context, eventID, itemID string) (*model.ShoppingItem, error)
	ListItems(ctx context.Context, eventID string) ([]model.ShoppingItem, error)
	UpdateItem(ctx context.Context, item *model.ShoppingItem) error
	DeleteItem(ctx context.Context, eventID, itemID string) error
}
