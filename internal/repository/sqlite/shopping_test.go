package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tribu-app/tribu/internal/apperror"
	"github.com/tribu-app/tribu/internal/model"
)

func createTestItem(t *testing.T, db *DB, eventID, creatorID, name string) *model.ShoppingItem {
	t.Helper()
	item := &model.ShoppingItem{
		EventID:   eventID,
		CreatorID: creatorID,
		Name:      name,
		Quantity:  1,
	}
	if err := db.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("failed to create test item %q: %v", name, err)
	}
	return item
}

func TestCreateItem_DuplicateNormalizedName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	event := createTestEvent(t, db, alice.ID, true)

	createTestItem(t, db, event.ID, alice.ID, "Red Wine")

	// Same name under normalization: case and whitespace insensitive.
	dup := &model.ShoppingItem{EventID: event.ID, CreatorID: alice.ID, Name: "  red   WINE ", Quantity: 2}
	if err := db.CreateItem(ctx, dup); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateItem() duplicate name: error = %v, want ErrConflict", err)
	}

	// The same name on another event is fine.
	other := createTestEvent(t, db, alice.ID, true)
	createTestItem(t, db, other.ID, alice.ID, "Red Wine")
}

func TestUpdateItem_RenameCollision(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	event := createTestEvent(t, db, alice.ID, true)

	createTestItem(t, db, event.ID, alice.ID, "Napkins")
	item := createTestItem(t, db, event.ID, alice.ID, "Plates")

	item.Name = "NAPKINS"
	if err := db.UpdateItem(ctx, item); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateItem() rename onto existing name: error = %v, want ErrConflict", err)
	}

	item.Name = "Paper plates"
	item.Quantity = 40
	if err := db.UpdateItem(ctx, item); err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	found, err := db.GetItem(ctx, event.ID, item.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if found.Name != "Paper plates" || found.Quantity != 40 {
		t.Errorf("updated item = %+v", found)
	}
}

func TestShoppingItem_ArrivalTimeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	event := createTestEvent(t, db, alice.ID, true)

	arrival := time.Date(2026, 7, 4, 17, 30, 0, 0, time.UTC)
	item := &model.ShoppingItem{
		EventID:     event.ID,
		CreatorID:   alice.ID,
		Name:        "Ice",
		Quantity:    3,
		ArrivalTime: &arrival,
	}
	if err := db.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	found, err := db.GetItem(ctx, event.ID, item.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if found.ArrivalTime == nil || !found.ArrivalTime.Equal(arrival) {
		t.Errorf("ArrivalTime = %v, want %v", found.ArrivalTime, arrival)
	}

	// Items without an arrival time keep a nil pointer.
	bare := createTestItem(t, db, event.ID, alice.ID, "Charcoal")
	found, err = db.GetItem(ctx, event.ID, bare.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if found.ArrivalTime != nil {
		t.Errorf("ArrivalTime = %v, want nil", found.ArrivalTime)
	}
}

func TestListItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	event := createTestEvent(t, db, alice.ID, true)

	createTestItem(t, db, event.ID, alice.ID, "Buns")
	createTestItem(t, db, event.ID, alice.ID, "Sausages")

	items, err := db.ListItems(ctx, event.ID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
}

func TestDeleteItem_ScopedToEvent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice@example.com")
	eventA := createTestEvent(t, db, alice.ID, true)
	eventB := createTestEvent(t, db, alice.ID, true)
	item := createTestItem(t, db, eventA.ID, alice.ID, "Lemonade")

	if err := db.DeleteItem(ctx, eventB.ID, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteItem() across events: error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteItem(ctx, eventA.ID, item.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if _, err := db.GetItem(ctx, eventA.ID, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetItem() after delete: error = %v, want ErrNotFound", err)
	}
}
