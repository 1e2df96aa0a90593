package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
)

func newTestGroupService() (*GroupService, *mockGroupRepo, *mockUserRepo) {
	groups := newMockGroupRepo()
	users := newMockUserRepo()
	return NewGroupService(groups, users, testLogger()), groups, users
}

func TestGroupCreate_Defaults(t *testing.T) {
	svc, _, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: " Book Club "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if group.Name != "Book Club" {
		t.Errorf("Name = %q, want trimmed", group.Name)
	}
	if group.Kind != model.GroupPublic {
		t.Errorf("Kind = %q, want default public", group.Kind)
	}
	if !group.AllowMemberPosts || group.AllowMemberEvents {
		t.Errorf("flags = posts:%v events:%v, want true/false defaults",
			group.AllowMemberPosts, group.AllowMemberEvents)
	}
}

func TestGroupCreate_Rejections(t *testing.T) {
	svc, _, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")

	if _, err := svc.Create(ctx, alice.ID, GroupInput{Name: "   "}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() blank name: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(ctx, alice.ID, GroupInput{Name: "X", Kind: "invite-only"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() unknown kind: error = %v, want ErrValidation", err)
	}
}

// A private group reads as missing to outsiders, not as forbidden.
func TestGroupGet_PrivateHiddenFromOutsiders(t *testing.T) {
	svc, _, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Private", Kind: model.GroupPrivate})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Get(ctx, alice.ID, group.ID); err != nil {
		t.Errorf("Get() as member: error = %v", err)
	}
	if _, err := svc.Get(ctx, bob.ID, group.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() as outsider: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, "", group.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() anonymous: error = %v, want ErrNotFound", err)
	}
}

func TestGroupList_SecretFiltered(t *testing.T) {
	svc, _, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	if _, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Open"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Hidden", Kind: model.GroupSecret}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	forBob, err := svc.List(ctx, bob.ID, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(forBob) != 1 || forBob[0].Name != "Open" {
		t.Errorf("outsider listing = %v, want the public group only", forBob)
	}

	forAlice, err := svc.List(ctx, alice.ID, 10, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(forAlice) != 2 {
		t.Errorf("member listing has %d groups, want 2", len(forAlice))
	}
}

func TestGroupUpdate_AdminOnly(t *testing.T) {
	svc, groups, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Club"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	groups.members[group.ID][bob.ID] = true

	if _, err := svc.Update(ctx, bob.ID, group.ID, GroupInput{Name: "Hijacked"}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() as plain member: error = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(ctx, alice.ID, group.ID, GroupInput{Name: "Renamed"})
	if err != nil {
		t.Fatalf("Update() as admin: error = %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", updated.Name, "Renamed")
	}
}

func TestGroupAddAdmin_RequiresMembership(t *testing.T) {
	svc, groups, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Club"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Admins must be a subset of members.
	if err := svc.AddAdmin(ctx, alice.ID, group.ID, bob.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("AddAdmin() for non-member: error = %v, want ErrValidation", err)
	}

	groups.members[group.ID][bob.ID] = true
	if err := svc.AddAdmin(ctx, alice.ID, group.ID, bob.ID); err != nil {
		t.Errorf("AddAdmin() for member: error = %v", err)
	}
}

func TestGroupRemoveMember_LastAdminStays(t *testing.T) {
	svc, groups, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Club"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	groups.members[group.ID][bob.ID] = true

	// Alice is the only admin; removing her would orphan the group.
	if err := svc.RemoveMember(ctx, alice.ID, group.ID, alice.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("RemoveMember() of last admin: error = %v, want ErrConflict", err)
	}

	// With a second admin, she may leave.
	groups.admins[group.ID][bob.ID] = true
	if err := svc.RemoveMember(ctx, alice.ID, group.ID, alice.ID); err != nil {
		t.Errorf("RemoveMember() with another admin present: error = %v", err)
	}
}

func TestGroupRemoveMember_SelfRemovalAllowed(t *testing.T) {
	svc, groups, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")
	carol := users.addUser("carol@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Club"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	groups.members[group.ID][bob.ID] = true
	groups.members[group.ID][carol.ID] = true

	// A plain member may leave but not evict others.
	if err := svc.RemoveMember(ctx, bob.ID, group.ID, carol.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("RemoveMember() of another member: error = %v, want ErrForbidden", err)
	}
	if err := svc.RemoveMember(ctx, bob.ID, group.ID, bob.ID); err != nil {
		t.Errorf("RemoveMember() self: error = %v", err)
	}
}

func TestGroupRemoveAdmin(t *testing.T) {
	svc, groups, users := newTestGroupService()
	ctx := context.Background()
	alice := users.addUser("alice@example.com")
	bob := users.addUser("bob@example.com")

	group, err := svc.Create(ctx, alice.ID, GroupInput{Name: "Club"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	groups.members[group.ID][bob.ID] = true

	// Demoting the sole admin is rejected.
	if err := svc.RemoveAdmin(ctx, alice.ID, group.ID, alice.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("RemoveAdmin() of last admin: error = %v, want ErrConflict", err)
	}
	// Demoting a non-admin is a quiet no-op.
	if err := svc.RemoveAdmin(ctx, alice.ID, group.ID, bob.ID); err != nil {
		t.Errorf("RemoveAdmin() of non-admin: error = %v", err)
	}

	groups.admins[group.ID][bob.ID] = true
	if err := svc.RemoveAdmin(ctx, alice.ID, group.ID, bob.ID); err != nil {
		t.Errorf("RemoveAdmin() with two admins: error = %v", err)
	}
}
