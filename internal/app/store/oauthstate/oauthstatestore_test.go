package oauthstate

import (
	"testing"

	"github.com/dalemusser/stratapages/internal/testutil"
)

func TestNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	if store == nil {
		t.Fatal("New() returned nil")
	}
}

func TestStore_CreateAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "state-token-123"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !store.Verify(ctx, "state-token-123") {
		t.Error("Verify() = false for freshly created state, want true")
	}
}

func TestStore_Verify_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, "state-token-456"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !store.Verify(ctx, "state-token-456") {
		t.Fatal("first Verify() = false, want true")
	}
	if store.Verify(ctx, "state-token-456") {
		t.Error("second Verify() = true, want false (state is single-use)")
	}
}

func TestStore_Verify_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if store.Verify(ctx, "never-created") {
		t.Error("Verify(unknown) = true, want false")
	}
}

func TestStore_Verify_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if store.Verify(ctx, "") {
		t.Error("Verify(\"\") = true, want false")
	}
}
