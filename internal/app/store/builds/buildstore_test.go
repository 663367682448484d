package buildstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratapages/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	b, err := store.Create(ctx, ReasonPublish, "cafe-noon")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if b.ID == "" {
		t.Error("Create() should assign a uuid")
	}
	if b.Status != StatusDispatched {
		t.Errorf("Status = %q, want dispatched", b.Status)
	}
	if b.Reason != ReasonPublish {
		t.Errorf("Reason = %q, want publish", b.Reason)
	}
	if b.PageSlug != "cafe-noon" {
		t.Errorf("PageSlug = %q, want cafe-noon", b.PageSlug)
	}
	if b.DispatchedAt.IsZero() {
		t.Error("DispatchedAt should be set")
	}
	if b.CompletedAt != nil {
		t.Error("CompletedAt should be nil on dispatch")
	}
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, ReasonManual, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Reason != ReasonManual {
		t.Errorf("Reason = %q, want manual", got.Reason)
	}

	if _, err := store.GetByID(ctx, "missing-id"); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestStore_Complete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, ReasonUpdate, "cafe-noon")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := store.Complete(ctx, created.ID, true, "deployed 12 pages")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !found {
		t.Fatal("Complete() found = false, want true")
	}

	got, _ := store.GetByID(ctx, created.ID)
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}
	if got.Detail != "deployed 12 pages" {
		t.Errorf("Detail = %q, want deployed 12 pages", got.Detail)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set")
	}
}

func TestStore_Complete_Failed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, ReasonDelete, "old-page")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.Complete(ctx, created.ID, false, "deploy step exited 1"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	got, _ := store.GetByID(ctx, created.ID)
	if got.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
}

func TestStore_Complete_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, ReasonPublish, "cafe-noon")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := store.Complete(ctx, created.ID, true, "")
	if err != nil || !found {
		t.Fatalf("first Complete() = (%v, %v), want (true, nil)", found, err)
	}

	// A second callback for the same build is a no-op.
	found, err = store.Complete(ctx, created.ID, false, "late failure report")
	if err != nil {
		t.Fatalf("second Complete() error = %v", err)
	}
	if found {
		t.Error("second Complete() found = true, want false")
	}

	got, _ := store.GetByID(ctx, created.ID)
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed (first result sticks)", got.Status)
	}
}

func TestStore_Complete_UnknownID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	found, err := store.Complete(ctx, "never-dispatched", true, "")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if found {
		t.Error("Complete(unknown) found = true, want false")
	}
}

func TestStore_GetRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := store.Create(ctx, ReasonManual, ""); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	builds, err := store.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(builds) != 2 {
		t.Errorf("GetRecent(2) returned %d, want 2", len(builds))
	}

	// Zero limit falls back to the default
	builds, err = store.GetRecent(ctx, 0)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if len(builds) != 3 {
		t.Errorf("GetRecent(0) returned %d, want 3", len(builds))
	}
}

func TestStore_Prune(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	old, err := store.Create(ctx, ReasonManual, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// Backdate the first build past the cutoff.
	_, err = db.Collection("builds").UpdateOne(ctx,
		bson.M{"_id": old.ID},
		bson.M{"$set": bson.M{"dispatched_at": time.Now().UTC().Add(-60 * 24 * time.Hour)}},
	)
	if err != nil {
		t.Fatalf("backdate error = %v", err)
	}

	if _, err := store.Create(ctx, ReasonManual, ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := store.Prune(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Prune() deleted %d, want 1", deleted)
	}
}
