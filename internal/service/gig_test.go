package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
)

func newTestGigService(t *testing.T) (*GigService, *mockStore) {
	t.Helper()
	store := newMockStore()
	return NewGigService(store, testLogger()), store
}

const validDescription = "Need a responsive landing page built with modern tooling."

func TestGigCreate_Success(t *testing.T) {
	svc, _ := newTestGigService(t)

	gig, err := svc.Create(context.Background(), "owner-1", "  Build a landing page  ", validDescription, 500)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if gig.ID == "" {
		t.Error("gig has no ID")
	}
	if gig.Title != "Build a landing page" {
		t.Errorf("Title = %q, want trimmed title", gig.Title)
	}
	if gig.Status != model.GigStatusOpen {
		t.Errorf("Status = %q, want open", gig.Status)
	}
	if gig.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, want owner-1", gig.OwnerID)
	}
}

func TestGigCreate_Validation(t *testing.T) {
	svc, _ := newTestGigService(t)

	tests := []struct {
		name        string
		title       string
		description string
		budget      float64
		field       string
	}{
		{"title too short", "Hey", validDescription, 100, "title"},
		{"title too long", strings.Repeat("x", 101), validDescription, 100, "title"},
		{"description too short", "Valid title", "too short", 100, "description"},
		{"description too long", "Valid title", strings.Repeat("x", 1001), 100, "description"},
		{"budget below minimum", "Valid title", validDescription, 0.5, "budget"},
		{"whitespace-only title", "        ", validDescription, 100, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "owner-1", tt.title, tt.description, tt.budget)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestGigListOpen_ClampsPaging(t *testing.T) {
	svc, store := newTestGigService(t)
	store.addGig("owner-1", "Build a landing page")

	// Nonsense paging inputs are normalized, not rejected.
	gigs, total, err := svc.ListOpen(context.Background(), "", -3, 0)
	if err != nil {
		t.Fatalf("ListOpen() error = %v", err)
	}
	if total != 1 || len(gigs) != 1 {
		t.Errorf("got %d gigs (total %d), want 1", len(gigs), total)
	}

	if _, _, err := svc.ListOpen(context.Background(), "", 1, 10_000); err != nil {
		t.Errorf("ListOpen() with oversized limit: error = %v", err)
	}
}

func TestGigGetByID(t *testing.T) {
	svc, store := newTestGigService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	got, err := svc.GetByID(context.Background(), gig.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != gig.ID {
		t.Errorf("ID = %q, want %q", got.ID, gig.ID)
	}

	if _, err := svc.GetByID(context.Background(), "no-such-gig"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing gig: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(context.Background(), "  "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank ID: error = %v, want ErrValidation", err)
	}
}
