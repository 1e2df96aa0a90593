package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
)

func newTestDiscussionService() (*DiscussionService, *mockDiscussionRepo, *mockGroupRepo, *mockEventRepo, *mockUserRepo) {
	groups := newMockGroupRepo()
	events := newMockEventRepo(groups)
	discussions := newMockDiscussionRepo()
	users := newMockUserRepo()
	svc := NewDiscussionService(discussions, groups, events, testLogger())
	return svc, discussions, groups, events, users
}

func TestDiscussionCreate_ParentExclusivity(t *testing.T) {
	svc, _, groups, events, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	group := &model.Group{Name: "Club", Kind: model.GroupPublic, AllowMemberPosts: true}
	if err := groups.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	event := &model.Event{Name: "BBQ", Public: true}
	if err := events.CreateEvent(ctx, event, alice.ID); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	if _, err := svc.Create(ctx, alice.ID, "", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() with no parent: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(ctx, alice.ID, group.ID, event.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() with both parents: error = %v, want ErrValidation", err)
	}
}

// Creating a second discussion under the same parent hands back the first
// one instead of erroring.
func TestDiscussionCreate_ReturnsExisting(t *testing.T) {
	svc, _, groups, _, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	group := &model.Group{Name: "Club", Kind: model.GroupPublic, AllowMemberPosts: true}
	if err := groups.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	first, err := svc.Create(ctx, alice.ID, group.ID, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := svc.Create(ctx, alice.ID, group.ID, "")
	if err != nil {
		t.Fatalf("Create() again: error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second Create() = %q, want the existing discussion %q", second.ID, first.ID)
	}
}

func TestDiscussionGetByGroup_AutoCreates(t *testing.T) {
	svc, _, groups, _, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	group := &model.Group{Name: "Club", Kind: model.GroupPublic, AllowMemberPosts: true}
	if err := groups.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	d, err := svc.GetByGroup(ctx, alice.ID, group.ID)
	if err != nil {
		t.Fatalf("GetByGroup() error = %v", err)
	}
	if d.GroupID != group.ID {
		t.Errorf("GroupID = %q, want %q", d.GroupID, group.ID)
	}

	again, err := svc.GetByGroup(ctx, alice.ID, group.ID)
	if err != nil {
		t.Fatalf("GetByGroup() again: error = %v", err)
	}
	if again.ID != d.ID {
		t.Errorf("second GetByGroup() = %q, want %q", again.ID, d.ID)
	}
}

// AllowMemberPosts off: members read but only admins write.
func TestDiscussionPostMessage_MemberPostsGate(t *testing.T) {
	svc, _, groups, _, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group := &model.Group{Name: "Announcements", Kind: model.GroupPublic, AllowMemberPosts: false}
	if err := groups.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	groups.members[group.ID][bob.ID] = true

	d, err := svc.GetByGroup(ctx, alice.ID, group.ID)
	if err != nil {
		t.Fatalf("GetByGroup() error = %v", err)
	}

	if _, err := svc.PostMessage(ctx, bob.ID, d.ID, "hi", ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("PostMessage() as member with posts off: error = %v, want ErrForbidden", err)
	}
	if _, err := svc.PostMessage(ctx, alice.ID, d.ID, "welcome", ""); err != nil {
		t.Errorf("PostMessage() as admin: error = %v", err)
	}
	// Reading stays open to members.
	if _, err := svc.ListMessages(ctx, bob.ID, d.ID, 10, 0); err != nil {
		t.Errorf("ListMessages() as member: error = %v", err)
	}
}

func TestDiscussionPostMessage_Threading(t *testing.T) {
	svc, _, _, events, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	eventA := &model.Event{Name: "A", Public: true}
	eventB := &model.Event{Name: "B", Public: true}
	for _, e := range []*model.Event{eventA, eventB} {
		if err := events.CreateEvent(ctx, e, alice.ID); err != nil {
			t.Fatalf("CreateEvent() error = %v", err)
		}
	}
	dA, err := svc.GetByEvent(ctx, alice.ID, eventA.ID)
	if err != nil {
		t.Fatalf("GetByEvent() error = %v", err)
	}
	dB, err := svc.GetByEvent(ctx, alice.ID, eventB.ID)
	if err != nil {
		t.Fatalf("GetByEvent() error = %v", err)
	}

	root, err := svc.PostMessage(ctx, alice.ID, dA.ID, "root", "")
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}

	if _, err := svc.PostMessage(ctx, alice.ID, dA.ID, "   ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("PostMessage() blank content: error = %v, want ErrValidation", err)
	}
	if _, err := svc.PostMessage(ctx, alice.ID, dA.ID, "reply", "no-such-message"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("PostMessage() missing parent: error = %v, want ErrValidation", err)
	}
	// A parent from another discussion is malformed input, not a lookup miss.
	if _, err := svc.PostMessage(ctx, alice.ID, dB.ID, "reply", root.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("PostMessage() cross-discussion parent: error = %v, want ErrValidation", err)
	}

	reply, err := svc.PostMessage(ctx, alice.ID, dA.ID, "reply", root.ID)
	if err != nil {
		t.Fatalf("PostMessage() valid reply: error = %v", err)
	}
	replies, err := svc.ListReplies(ctx, alice.ID, dA.ID, root.ID)
	if err != nil {
		t.Fatalf("ListReplies() error = %v", err)
	}
	if len(replies) != 1 || replies[0].ID != reply.ID {
		t.Errorf("replies = %v, want the one reply", replies)
	}
}

func TestDiscussionDeleteMessage_Moderation(t *testing.T) {
	svc, _, _, events, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")
	carol := users.addUser("carol@example.com")

	event := &model.Event{Name: "BBQ", Public: true}
	if err := events.CreateEvent(ctx, event, alice.ID); err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	events.participants[event.ID][bob.ID] = true
	events.participants[event.ID][carol.ID] = true

	d, err := svc.GetByEvent(ctx, alice.ID, event.ID)
	if err != nil {
		t.Fatalf("GetByEvent() error = %v", err)
	}
	m, err := svc.PostMessage(ctx, bob.ID, d.ID, "hot take", "")
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}

	// Another participant cannot delete it; the organizer can.
	if err := svc.DeleteMessage(ctx, carol.ID, d.ID, m.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("DeleteMessage() as bystander: error = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteMessage(ctx, alice.ID, d.ID, m.ID); err != nil {
		t.Errorf("DeleteMessage() as organizer: error = %v", err)
	}

	// Authors may delete their own.
	m2, err := svc.PostMessage(ctx, bob.ID, d.ID, "second thoughts", "")
	if err != nil {
		t.Fatalf("PostMessage() error = %v", err)
	}
	if err := svc.DeleteMessage(ctx, bob.ID, d.ID, m2.ID); err != nil {
		t.Errorf("DeleteMessage() as author: error = %v", err)
	}
}

// A secret group's discussion must not leak its existence.
func TestDiscussionGet_HiddenParent(t *testing.T) {
	svc, _, groups, _, users := newTestDiscussionService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group := &model.Group{Name: "Cabal", Kind: model.GroupSecret, AllowMemberPosts: true}
	if err := groups.CreateGroup(ctx, group, alice.ID); err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	d, err := svc.GetByGroup(ctx, alice.ID, group.ID)
	if err != nil {
		t.Fatalf("GetByGroup() error = %v", err)
	}

	if _, err := svc.Get(ctx, bob.ID, d.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() as outsider: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByGroup(ctx, bob.ID, group.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByGroup() as outsider: error = %v, want ErrNotFound", err)
	}
}
