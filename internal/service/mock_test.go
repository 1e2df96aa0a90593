package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
	"github.com/tribu-app/tribu/internal/policy"
	"github.com/tribu-app/tribu/internal/repository"
)

// In-memory repository fakes. They mirror the store's contract — typed
// apperrors, unique-index conflicts, creator enrollment — without SQL, so
// the service tests exercise orchestration and policy wiring alone.

var (
	_ repository.UserRepository       = (*mockUserRepo)(nil)
	_ repository.GroupRepository      = (*mockGroupRepo)(nil)
	_ repository.EventRepository      = (*mockEventRepo)(nil)
	_ repository.DiscussionRepository = (*mockDiscussionRepo)(nil)
	_ repository.AlbumRepository      = (*mockAlbumRepo)(nil)
	_ repository.PollRepository       = (*mockPollRepo)(nil)
	_ repository.TicketRepository     = (*mockTicketRepo)(nil)
	_ repository.ShoppingRepository   = (*mockShoppingRepo)(nil)
)

var testIDs atomic.Int64

func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, testIDs.Add(1))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- users ---

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*model.User{}}
}

func (r *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.Conflict("email is already registered")
		}
	}
	user.ID = nextID("user")
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return nil
}

func (r *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (r *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user")
}

// addUser seeds an account directly, skipping registration.
func (r *mockUserRepo) addUser(email string) *model.User {
	u := &model.User{ID: nextID("user"), Email: email, FullName: "Test User"}
	r.users[u.ID] = u
	return u
}

// --- groups ---

type mockGroupRepo struct {
	groups  map[string]*model.Group
	members map[string]map[string]bool
	admins  map[string]map[string]bool
	order   []string
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:  map[string]*model.Group{},
		members: map[string]map[string]bool{},
		admins:  map[string]map[string]bool{},
	}
}

func (r *mockGroupRepo) CreateGroup(_ context.Context, group *model.Group, creatorID string) error {
	group.ID = nextID("group")
	group.CreatedAt = time.Now().UTC()
	r.groups[group.ID] = group
	r.members[group.ID] = map[string]bool{creatorID: true}
	r.admins[group.ID] = map[string]bool{creatorID: true}
	r.order = append(r.order, group.ID)
	return nil
}

func (r *mockGroupRepo) GetGroup(_ context.Context, id string) (*model.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, apperror.NotFound("group")
	}
	return g, nil
}

func (r *mockGroupRepo) ListGroups(_ context.Context, opts repository.ListOptions) ([]model.Group, error) {
	groups := []model.Group{}
	for i, id := range r.order {
		if i < opts.Offset {
			continue
		}
		if len(groups) >= opts.Limit {
			break
		}
		groups = append(groups, *r.groups[id])
	}
	return groups, nil
}

func (r *mockGroupRepo) UpdateGroup(_ context.Context, group *model.Group) error {
	if _, ok := r.groups[group.ID]; !ok {
		return apperror.NotFound("group")
	}
	r.groups[group.ID] = group
	return nil
}

func (r *mockGroupRepo) GroupRoster(_ context.Context, groupID string) (model.GroupRoster, error) {
	return model.GroupRoster{
		Members: ids(r.members[groupID]),
		Admins:  ids(r.admins[groupID]),
	}, nil
}

func (r *mockGroupRepo) ListGroupMembers(_ context.Context, groupID string) ([]model.User, error) {
	return userRows(r.members[groupID]), nil
}

func (r *mockGroupRepo) ListGroupAdmins(_ context.Context, groupID string) ([]model.User, error) {
	return userRows(r.admins[groupID]), nil
}

func (r *mockGroupRepo) AddGroupMember(_ context.Context, groupID, userID string) error {
	r.members[groupID][userID] = true
	return nil
}

func (r *mockGroupRepo) RemoveGroupMember(_ context.Context, groupID, userID string) error {
	delete(r.members[groupID], userID)
	delete(r.admins[groupID], userID)
	return nil
}

func (r *mockGroupRepo) AddGroupAdmin(_ context.Context, groupID, userID string) error {
	r.admins[groupID][userID] = true
	return nil
}

func (r *mockGroupRepo) RemoveGroupAdmin(_ context.Context, groupID, userID string) error {
	delete(r.admins[groupID], userID)
	return nil
}

// --- events ---

type mockEventRepo struct {
	events       map[string]*model.Event
	participants map[string]map[string]bool
	organizers   map[string]map[string]bool
	order        []string
	// groups supplies the hosting group's members for EventRoster; nil for
	// tests that never link events to groups.
	groups *mockGroupRepo
}

func newMockEventRepo(groups *mockGroupRepo) *mockEventRepo {
	return &mockEventRepo{
		events:       map[string]*model.Event{},
		participants: map[string]map[string]bool{},
		organizers:   map[string]map[string]bool{},
		groups:       groups,
	}
}

func (r *mockEventRepo) CreateEvent(_ context.Context, event *model.Event, creatorID string) error {
	event.ID = nextID("event")
	event.CreatedAt = time.Now().UTC()
	r.events[event.ID] = event
	r.participants[event.ID] = map[string]bool{creatorID: true}
	r.organizers[event.ID] = map[string]bool{creatorID: true}
	r.order = append(r.order, event.ID)
	return nil
}

func (r *mockEventRepo) GetEvent(_ context.Context, id string) (*model.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, apperror.NotFound("event")
	}
	return e, nil
}

func (r *mockEventRepo) UpdateEvent(_ context.Context, event *model.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return apperror.NotFound("event")
	}
	r.events[event.ID] = event
	return nil
}

func (r *mockEventRepo) ListEvents(_ context.Context, viewerID string, opts repository.ListOptions) ([]model.Event, error) {
	events := []model.Event{}
	for _, id := range r.order {
		e := r.events[id]
		if e.Public || r.participants[id][viewerID] || r.organizers[id][viewerID] {
			events = append(events, *e)
		}
	}
	return events, nil
}

func (r *mockEventRepo) EventRoster(ctx context.Context, eventID string) (model.EventRoster, error) {
	roster := model.EventRoster{
		Participants: ids(r.participants[eventID]),
		Organizers:   ids(r.organizers[eventID]),
	}
	if e := r.events[eventID]; e != nil && e.GroupID != "" && r.groups != nil {
		gr, _ := r.groups.GroupRoster(ctx, e.GroupID)
		roster.GroupMembers = gr.Members
	}
	return roster, nil
}

func (r *mockEventRepo) ListParticipants(_ context.Context, eventID string) ([]model.User, error) {
	return userRows(r.participants[eventID]), nil
}

func (r *mockEventRepo) ListOrganizers(_ context.Context, eventID string) ([]model.User, error) {
	return userRows(r.organizers[eventID]), nil
}

func (r *mockEventRepo) AddParticipant(_ context.Context, eventID, userID string) error {
	r.participants[eventID][userID] = true
	return nil
}

func (r *mockEventRepo) AddParticipants(_ context.Context, eventID string, userIDs []string) error {
	for _, id := range userIDs {
		r.participants[eventID][id] = true
	}
	return nil
}

func (r *mockEventRepo) RemoveParticipant(_ context.Context, eventID, userID string) error {
	delete(r.participants[eventID], userID)
	return nil
}

func (r *mockEventRepo) AddOrganizer(_ context.Context, eventID, userID string) error {
	r.organizers[eventID][userID] = true
	return nil
}

func (r *mockEventRepo) RemoveOrganizer(_ context.Context, eventID, userID string) error {
	delete(r.organizers[eventID], userID)
	return nil
}

// --- discussions ---

type mockDiscussionRepo struct {
	discussions map[string]*model.Discussion
	messages    map[string]*model.Message
	msgOrder    []string
}

func newMockDiscussionRepo() *mockDiscussionRepo {
	return &mockDiscussionRepo{
		discussions: map[string]*model.Discussion{},
		messages:    map[string]*model.Message{},
	}
}

func (r *mockDiscussionRepo) CreateDiscussion(_ context.Context, d *model.Discussion) error {
	for _, existing := range r.discussions {
		if (d.GroupID != "" && existing.GroupID == d.GroupID) ||
			(d.EventID != "" && existing.EventID == d.EventID) {
			return apperror.Conflict("a discussion already exists for this group or event")
		}
	}
	d.ID = nextID("discussion")
	d.CreatedAt = time.Now().UTC()
	r.discussions[d.ID] = d
	return nil
}

func (r *mockDiscussionRepo) GetDiscussion(_ context.Context, id string) (*model.Discussion, error) {
	d, ok := r.discussions[id]
	if !ok {
		return nil, apperror.NotFound("discussion")
	}
	return d, nil
}

func (r *mockDiscussionRepo) GetDiscussionByGroup(_ context.Context, groupID string) (*model.Discussion, error) {
	for _, d := range r.discussions {
		if d.GroupID == groupID {
			return d, nil
		}
	}
	return nil, apperror.NotFound("discussion")
}

func (r *mockDiscussionRepo) GetDiscussionByEvent(_ context.Context, eventID string) (*model.Discussion, error) {
	for _, d := range r.discussions {
		if d.EventID == eventID {
			return d, nil
		}
	}
	return nil, apperror.NotFound("discussion")
}

func (r *mockDiscussionRepo) CreateMessage(_ context.Context, m *model.Message) error {
	m.ID = nextID("message")
	m.CreatedAt = time.Now().UTC()
	r.messages[m.ID] = m
	r.msgOrder = append(r.msgOrder, m.ID)
	return nil
}

func (r *mockDiscussionRepo) GetMessage(_ context.Context, discussionID, messageID string) (*model.Message, error) {
	m, ok := r.messages[messageID]
	if !ok || m.DiscussionID != discussionID {
		return nil, apperror.NotFound("message")
	}
	return m, nil
}

func (r *mockDiscussionRepo) GetMessageByID(_ context.Context, messageID string) (*model.Message, error) {
	m, ok := r.messages[messageID]
	if !ok {
		return nil, apperror.NotFound("message")
	}
	return m, nil
}

func (r *mockDiscussionRepo) ListMessages(_ context.Context, discussionID string, _ repository.ListOptions) ([]model.Message, error) {
	messages := []model.Message{}
	for _, id := range r.msgOrder {
		if m, ok := r.messages[id]; ok && m.DiscussionID == discussionID {
			messages = append(messages, *m)
		}
	}
	return messages, nil
}

func (r *mockDiscussionRepo) ListReplies(_ context.Context, discussionID, parentID string) ([]model.Message, error) {
	replies := []model.Message{}
	for _, id := range r.msgOrder {
		if m, ok := r.messages[id]; ok && m.DiscussionID == discussionID && m.ParentMessageID == parentID {
			replies = append(replies, *m)
		}
	}
	return replies, nil
}

func (r *mockDiscussionRepo) DeleteMessage(_ context.Context, discussionID, messageID string) error {
	m, ok := r.messages[messageID]
	if !ok || m.DiscussionID != discussionID {
		return apperror.NotFound("message")
	}
	delete(r.messages, messageID)
	// The store cascades reply deletion.
	for id, reply := range r.messages {
		if reply.ParentMessageID == messageID {
			delete(r.messages, id)
		}
	}
	return nil
}

// --- albums ---

type mockAlbumRepo struct {
	albums   map[string]*model.Album
	photos   map[string]*model.Photo
	comments map[string][]model.PhotoComment
}

func newMockAlbumRepo() *mockAlbumRepo {
	return &mockAlbumRepo{
		albums:   map[string]*model.Album{},
		photos:   map[string]*model.Photo{},
		comments: map[string][]model.PhotoComment{},
	}
}

func (r *mockAlbumRepo) CreateAlbum(_ context.Context, a *model.Album) error {
	a.ID = nextID("album")
	a.CreatedAt = time.Now().UTC()
	r.albums[a.ID] = a
	return nil
}

func (r *mockAlbumRepo) GetAlbum(_ context.Context, id string) (*model.Album, error) {
	a, ok := r.albums[id]
	if !ok {
		return nil, apperror.NotFound("album")
	}
	return a, nil
}

func (r *mockAlbumRepo) ListAlbumsByEvent(_ context.Context, eventID string, _ repository.ListOptions) ([]model.Album, error) {
	albums := []model.Album{}
	for _, a := range r.albums {
		if a.EventID == eventID {
			albums = append(albums, *a)
		}
	}
	return albums, nil
}

func (r *mockAlbumRepo) CreatePhoto(_ context.Context, p *model.Photo) error {
	p.ID = nextID("photo")
	p.CreatedAt = time.Now().UTC()
	r.photos[p.ID] = p
	return nil
}

func (r *mockAlbumRepo) GetPhoto(_ context.Context, id string) (*model.Photo, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, apperror.NotFound("photo")
	}
	return p, nil
}

func (r *mockAlbumRepo) ListPhotos(_ context.Context, albumID string, _ repository.ListOptions) ([]model.Photo, error) {
	photos := []model.Photo{}
	for _, p := range r.photos {
		if p.AlbumID == albumID {
			photos = append(photos, *p)
		}
	}
	return photos, nil
}

func (r *mockAlbumRepo) CreatePhotoComment(_ context.Context, c *model.PhotoComment) error {
	c.ID = nextID("comment")
	c.CreatedAt = time.Now().UTC()
	r.comments[c.PhotoID] = append(r.comments[c.PhotoID], *c)
	return nil
}

func (r *mockAlbumRepo) ListPhotoComments(_ context.Context, photoID string, _ repository.ListOptions) ([]model.PhotoComment, error) {
	return r.comments[photoID], nil
}

// --- polls ---

type mockPollRepo struct {
	polls     map[string]*model.Poll
	questions map[string]*model.Question
	// votes is questionID -> userID -> optionID.
	votes map[string]map[string]string
}

func newMockPollRepo() *mockPollRepo {
	return &mockPollRepo{
		polls:     map[string]*model.Poll{},
		questions: map[string]*model.Question{},
		votes:     map[string]map[string]string{},
	}
}

func (r *mockPollRepo) CreatePoll(_ context.Context, p *model.Poll) error {
	p.ID = nextID("poll")
	p.CreatedAt = time.Now().UTC()
	for qi := range p.Questions {
		q := &p.Questions[qi]
		q.ID = nextID("question")
		q.PollID = p.ID
		for oi := range q.Options {
			o := &q.Options[oi]
			o.ID = nextID("option")
			o.QuestionID = q.ID
		}
		r.questions[q.ID] = q
	}
	r.polls[p.ID] = p
	return nil
}

func (r *mockPollRepo) GetPoll(_ context.Context, id string) (*model.Poll, error) {
	p, ok := r.polls[id]
	if !ok {
		return nil, apperror.NotFound("poll")
	}
	return p, nil
}

func (r *mockPollRepo) ListPollsByEvent(_ context.Context, eventID string) ([]model.Poll, error) {
	polls := []model.Poll{}
	for _, p := range r.polls {
		if p.EventID == eventID {
			polls = append(polls, *p)
		}
	}
	return polls, nil
}

func (r *mockPollRepo) GetQuestion(_ context.Context, questionID string) (*model.Question, error) {
	q, ok := r.questions[questionID]
	if !ok {
		return nil, apperror.NotFound("question")
	}
	return q, nil
}

func (r *mockPollRepo) OptionInQuestion(_ context.Context, questionID, optionID string) (bool, error) {
	q, ok := r.questions[questionID]
	if !ok {
		return false, nil
	}
	for _, o := range q.Options {
		if o.ID == optionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockPollRepo) CreateVote(_ context.Context, v *model.Vote) error {
	if r.votes[v.QuestionID] == nil {
		r.votes[v.QuestionID] = map[string]string{}
	}
	if _, voted := r.votes[v.QuestionID][v.UserID]; voted {
		return apperror.Conflict("already voted on this question")
	}
	r.votes[v.QuestionID][v.UserID] = v.OptionID
	return nil
}

func (r *mockPollRepo) PollResults(ctx context.Context, pollID string) (*model.PollResults, error) {
	poll, err := r.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	results := &model.PollResults{PollID: poll.ID, Title: poll.Title}
	for _, q := range poll.Questions {
		qr := model.QuestionResult{QuestionID: q.ID, Text: q.Text}
		for _, o := range q.Options {
			votes := 0
			for _, optionID := range r.votes[q.ID] {
				if optionID == o.ID {
					votes++
				}
			}
			qr.Options = append(qr.Options, model.OptionResult{OptionID: o.ID, Label: o.Label, Votes: votes})
		}
		results.Results = append(results.Results, qr)
	}
	return results, nil
}

// --- tickets ---

type mockTicketRepo struct {
	types     map[string]*model.TicketType
	purchases []*model.TicketPurchase
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{types: map[string]*model.TicketType{}}
}

func (r *mockTicketRepo) CreateTicketType(_ context.Context, t *model.TicketType) error {
	t.ID = nextID("tickettype")
	t.CreatedAt = time.Now().UTC()
	r.types[t.ID] = t
	return nil
}

func (r *mockTicketRepo) GetTicketType(_ context.Context, eventID, typeID string) (*model.TicketType, error) {
	t, ok := r.types[typeID]
	if !ok || t.EventID != eventID {
		return nil, apperror.NotFound("ticket type")
	}
	return t, nil
}

func (r *mockTicketRepo) ListTicketTypes(_ context.Context, eventID string) ([]model.TicketType, error) {
	types := []model.TicketType{}
	for _, t := range r.types {
		if t.EventID == eventID {
			types = append(types, *t)
		}
	}
	return types, nil
}

func (r *mockTicketRepo) PurchaseTicket(_ context.Context, p *model.TicketPurchase) error {
	t, ok := r.types[p.TicketTypeID]
	if !ok || t.EventID != p.EventID {
		return apperror.NotFound("ticket type")
	}
	sold := 0
	for _, existing := range r.purchases {
		if existing.EventID == p.EventID && existing.Email == p.Email {
			return apperror.Conflict("this email already purchased a ticket for this event")
		}
		if existing.TicketTypeID == p.TicketTypeID {
			sold++
		}
	}
	if sold >= t.QuantityLimit {
		return apperror.Conflict("ticket type is sold out")
	}
	p.ID = nextID("purchase")
	p.Reference = nextID("ref")
	p.PurchasedAt = time.Now().UTC()
	r.purchases = append(r.purchases, p)
	return nil
}

func (r *mockTicketRepo) ListPurchases(_ context.Context, eventID string) ([]model.TicketPurchase, error) {
	purchases := []model.TicketPurchase{}
	for _, p := range r.purchases {
		if p.EventID == eventID {
			purchases = append(purchases, *p)
		}
	}
	return purchases, nil
}

// --- shopping ---

type mockShoppingRepo struct {
	items map[string]*model.ShoppingItem
}

func newMockShoppingRepo() *mockShoppingRepo {
	return &mockShoppingRepo{items: map[string]*model.ShoppingItem{}}
}

func (r *mockShoppingRepo) CreateItem(_ context.Context, item *model.ShoppingItem) error {
	for _, existing := range r.items {
		if existing.EventID == item.EventID &&
			policy.NormalizeName(existing.Name) == policy.NormalizeName(item.Name) {
			return apperror.Conflict("this item already exists for this event")
		}
	}
	item.ID = nextID("item")
	item.CreatedAt = time.Now().UTC()
	r.items[item.ID] = item
	return nil
}

func (r *mockShoppingRepo) GetItem(_ context.Context, eventID, itemID string) (*model.ShoppingItem, error) {
	item, ok := r.items[itemID]
	if !ok || item.EventID != eventID {
		return nil, apperror.NotFound("shopping item")
	}
	return item, nil
}

func (r *mockShoppingRepo) ListItems(_ context.Context, eventID string) ([]model.ShoppingItem, error) {
	items := []model.ShoppingItem{}
	for _, item := range r.items {
		if item.EventID == eventID {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (r *mockShoppingRepo) UpdateItem(_ context.Context, item *model.ShoppingItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return apperror.NotFound("shopping item")
	}
	for _, existing := range r.items {
		if existing.ID != item.ID && existing.EventID == item.EventID &&
			policy.NormalizeName(existing.Name) == policy.NormalizeName(item.Name) {
			return apperror.Conflict("this item already exists for this event")
		}
	}
	r.items[item.ID] = item
	return nil
}

func (r *mockShoppingRepo) DeleteItem(_ context.Context, eventID, itemID string) error {
	item, ok := r.items[itemID]
	if !ok || item.EventID != eventID {
		return apperror.NotFound("shopping item")
	}
	delete(r.items, itemID)
	return nil
}

func ids(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func userRows(set map[string]bool) []model.User {
	out := make([]model.User, 0, len(set))
	for id := range set {
		out = append(out, model.User{ID: id})
	}
	return out
}
