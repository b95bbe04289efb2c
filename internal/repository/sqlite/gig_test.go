package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/repository"
)

// createTestGig inserts a gig for owner, failing the test on error.
func createTestGig(t *testing.T, db *DB, ownerID, title string, budget float64) *model.Gig {
	t.Helper()
	gig := &model.Gig{
		Title:       title,
		Description: "A test gig description long enough to be plausible.",
		Budget:      budget,
		OwnerID:     ownerID,
	}
	if err := db.CreateGig(context.Background(), gig); err != nil {
		t.Fatalf("failed to create test gig: %v", err)
	}
	return gig
}

func TestCreateGig(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner", "owner@example.com")

	gig := createTestGig(t, db, owner.ID, "Build a landing page", 500)

	if gig.ID == "" {
		t.Error("CreateGig() did not set gig.ID")
	}
	if gig.Status != model.GigStatusOpen {
		t.Errorf("Status = %q, want %q", gig.Status, model.GigStatusOpen)
	}
	if gig.CreatedAt.IsZero() {
		t.Error("CreateGig() did not set gig.CreatedAt")
	}
}

func TestGetGigByID(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner", "owner@example.com")
	created := createTestGig(t, db, owner.ID, "Design a logo", 250)

	found, err := db.GetGigByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetGigByID() error = %v", err)
	}

	if found.Title != "Design a logo" {
		t.Errorf("Title = %q, want %q", found.Title, "Design a logo")
	}
	if found.OwnerName != "Owner" {
		t.Errorf("OwnerName = %q, want %q (join with users)", found.OwnerName, "Owner")
	}
	if found.OwnerEmail != "owner@example.com" {
		t.Errorf("OwnerEmail = %q, want %q", found.OwnerEmail, "owner@example.com")
	}
}

func TestGetGigByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetGigByID(context.Background(), "does-not-exist")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetGigByID() error = %v, want ErrNotFound", err)
	}
}

func TestListOpenGigs(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner", "owner@example.com")

	for i := 0; i < 5; i++ {
		createTestGig(t, db, owner.ID, fmt.Sprintf("Open gig number %d", i), 100)
	}

	gigs, total, err := db.ListOpenGigs(context.Background(), repository.GigListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListOpenGigs() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(gigs) != 5 {
		t.Errorf("len(gigs) = %d, want 5", len(gigs))
	}
	for _, g := range gigs {
		if g.Status != model.GigStatusOpen {
			t.Errorf("listed gig %s has status %q, want open", g.ID, g.Status)
		}
	}
}

func TestListOpenGigs_Pagination(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner", "owner@example.com")

	for i := 0; i < 7; i++ {
		createTestGig(t, db, owner.ID, fmt.Sprintf("Paged gig number %d", i), 100)
	}

	page1, total, err := db.ListOpenGigs(context.Background(), repository.GigListOptions{Limit: 3, Offset: 0})
	if err != nil {
		t.Fatalf("ListOpenGigs() error = %v", err)
	}
	if total != 7 {
		t.Errorf("total = %d, want 7", total)
	}
	if len(page1) != 3 {
		t.Errorf("len(page1) = %d, want 3", len(page1))
	}

	page3, _, err := db.ListOpenGigs(context.Background(), repository.GigListOptions{Limit: 3, Offset: 6})
	if err != nil {
		t.Fatalf("ListOpenGigs() error = %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("len(page3) = %d, want 1", len(page3))
	}
}

func TestListOpenGigs_Search(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "Owner", "owner@example.com")

	createTestGig(t, db, owner.ID, "Build a React dashboard", 800)
	createTestGig(t, db, owner.ID, "Write API documentation", 300)

	gigs, total, err := db.ListOpenGigs(context.Background(), repository.GigListOptions{Search: "React", Limit: 10})
	if err != nil {
		t.Fatalf("ListOpenGigs() error = %v", err)
	}
	if total != 1 || len(gigs) != 1 {
		t.Fatalf("search: total = %d, len = %d, want 1 and 1", total, len(gigs))
	}
	if gigs[0].Title != "Build a React dashboard" {
		t.Errorf("Title = %q, want the React gig", gigs[0].Title)
	}
}

func TestListGigsByOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	createTestGig(t, db, alice.ID, "Alice gig one", 100)
	createTestGig(t, db, alice.ID, "Alice gig two", 200)
	createTestGig(t, db, bob.ID, "Bob gig one", 300)

	gigs, err := db.ListGigsByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListGigsByOwner() error = %v", err)
	}
	if len(gigs) != 2 {
		t.Fatalf("len(gigs) = %d, want 2", len(gigs))
	}
	for _, g := range gigs {
		if g.OwnerID != alice.ID {
			t.Errorf("gig %s owned by %s, want %s", g.ID, g.OwnerID, alice.ID)
		}
	}
}
