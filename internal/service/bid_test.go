package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/notify"
	"github.com/sakif/gigflow/internal/repository"
)

// mockStore is a hand-written in-memory implementation of the gig and bid
// repositories. It mirrors the real store's protocol semantics (open check,
// self-bid check, duplicate check, hire transition) under a single mutex, so
// service tests exercise the engine without a database.
type mockStore struct {
	mu      sync.Mutex
	gigs    map[string]*model.Gig
	bids    map[string]*model.Bid
	nextID  int
	gigErr  error // forced error for GetGigByID, to test notification suppression
	bidErr  error // forced error for CreateBid
	hireErr error // forced error for HireBid
}

func newMockStore() *mockStore {
	return &mockStore{
		gigs: make(map[string]*model.Gig),
		bids: make(map[string]*model.Bid),
	}
}

func (m *mockStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *mockStore) addGig(ownerID, title string) *model.Gig {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &model.Gig{
		ID:      m.id("gig"),
		Title:   title,
		OwnerID: ownerID,
		Status:  model.GigStatusOpen,
	}
	m.gigs[g.ID] = g
	return g
}

func (m *mockStore) CreateGig(_ context.Context, gig *model.Gig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gig.ID = m.id("gig")
	gig.Status = model.GigStatusOpen
	stored := *gig
	m.gigs[gig.ID] = &stored
	return nil
}

func (m *mockStore) GetGigByID(_ context.Context, id string) (*model.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gigErr != nil {
		return nil, m.gigErr
	}
	g, ok := m.gigs[id]
	if !ok {
		return nil, apperror.NotFound("gig", id)
	}
	result := *g
	return &result, nil
}

func (m *mockStore) ListOpenGigs(_ context.Context, opts repository.GigListOptions) ([]model.Gig, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Gig
	for _, g := range m.gigs {
		if g.Status != model.GigStatusOpen {
			continue
		}
		if opts.Search != "" && !strings.Contains(g.Title, opts.Search) {
			continue
		}
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (m *mockStore) ListGigsByOwner(_ context.Context, ownerID string) ([]model.Gig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Gig
	for _, g := range m.gigs {
		if g.OwnerID == ownerID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *mockStore) CreateBid(_ context.Context, bid *model.Bid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bidErr != nil {
		return m.bidErr
	}
	g, ok := m.gigs[bid.GigID]
	if !ok {
		return apperror.NotFound("gig", bid.GigID)
	}
	if g.Status != model.GigStatusOpen {
		return apperror.Conflict("this gig is no longer accepting bids")
	}
	if g.OwnerID == bid.FreelancerID {
		return apperror.Forbidden("you cannot bid on your own gig")
	}
	for _, b := range m.bids {
		if b.GigID == bid.GigID && b.FreelancerID == bid.FreelancerID {
			return apperror.Conflict("you have already bid on this gig")
		}
	}
	bid.ID = m.id("bid")
	bid.Status = model.BidStatusPending
	stored := *bid
	m.bids[bid.ID] = &stored
	return nil
}

func (m *mockStore) HireBid(_ context.Context, bidID, ownerID string) (*repository.HireResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hireErr != nil {
		return nil, m.hireErr
	}
	b, ok := m.bids[bidID]
	if !ok {
		return nil, apperror.NotFound("bid", bidID)
	}
	g := m.gigs[b.GigID]
	if g.OwnerID != ownerID {
		return nil, apperror.Forbidden("not authorized to hire for this gig")
	}
	if g.Status != model.GigStatusOpen {
		return nil, apperror.Conflict("gig is no longer open for hiring")
	}
	g.Status = model.GigStatusAssigned
	b.Status = model.BidStatusHired
	var rejected int64
	for _, other := range m.bids {
		if other.GigID == g.ID && other.ID != b.ID && other.Status == model.BidStatusPending {
			other.Status = model.BidStatusRejected
			rejected++
		}
	}
	bidCopy, gigCopy := *b, *g
	bidCopy.GigTitle = g.Title
	return &repository.HireResult{Bid: &bidCopy, Gig: &gigCopy, RejectedBids: rejected}, nil
}

func (m *mockStore) ListBidsByGig(_ context.Context, gigID string) ([]model.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bid
	for _, b := range m.bids {
		if b.GigID == gigID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockStore) ListBidsByFreelancer(_ context.Context, freelancerID string) ([]model.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Bid
	for _, b := range m.bids {
		if b.FreelancerID == freelancerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// recorderPublisher captures published events instead of delivering them.
type recorderPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	UserID string
	Event  notify.Event
}

func (r *recorderPublisher) Publish(userID string, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{UserID: userID, Event: event})
}

func (r *recorderPublisher) all() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publishedEvent(nil), r.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestBidService(t *testing.T) (*BidService, *mockStore, *recorderPublisher) {
	t.Helper()
	store := newMockStore()
	pub := &recorderPublisher{}
	svc := NewBidService(store, store, pub, testLogger())
	return svc, store, pub
}

const validMessage = "I have done similar work before and can start right away."

func TestBidCreate_Success(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	bid, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 400, 0, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if bid.Status != model.BidStatusPending {
		t.Errorf("Status = %q, want pending", bid.Status)
	}
	if bid.DeliveryTime != DefaultDeliveryTime {
		t.Errorf("DeliveryTime = %d, want default %d", bid.DeliveryTime, DefaultDeliveryTime)
	}
	if bid.Revisions != DefaultRevisions {
		t.Errorf("Revisions = %d, want default %d", bid.Revisions, DefaultRevisions)
	}

	// The gig owner was notified, post-commit, with linkable context IDs.
	events := pub.all()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	if events[0].UserID != "owner-1" {
		t.Errorf("notified %q, want the gig owner", events[0].UserID)
	}
	if events[0].Event.Type != "new-bid" {
		t.Errorf("event type = %q, want new-bid", events[0].Event.Type)
	}
	if events[0].Event.GigID != gig.ID || events[0].Event.BidID != bid.ID {
		t.Errorf("event context = (%q, %q), want (%q, %q)",
			events[0].Event.GigID, events[0].Event.BidID, gig.ID, bid.ID)
	}
}

func TestBidCreate_Validation(t *testing.T) {
	svc, store, _ := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	tests := []struct {
		name    string
		gigID   string
		message string
		price   float64
		field   string
	}{
		{"missing gig ID", "", validMessage, 100, "gigId"},
		{"message too short", gig.ID, "too short", 100, "message"},
		{"message too long", gig.ID, strings.Repeat("x", 501), 100, "message"},
		{"price below minimum", gig.ID, validMessage, 0.5, "price"},
		{"price above sanity bound", gig.ID, validMessage, 2_000_000, "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "freelancer-1", tt.gigID, tt.message, tt.price, 0, 0)
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

func TestBidCreate_ProtocolErrorsPropagate(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	// Self-bid.
	_, err := svc.Create(context.Background(), "owner-1", gig.ID, validMessage, 100, 0, 0)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("self-bid: error = %v, want ErrForbidden", err)
	}

	// Duplicate.
	if _, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 100, 0, 0); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	_, err = svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 120, 0, 0)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate: error = %v, want ErrConflict", err)
	}

	// Missing gig.
	_, err = svc.Create(context.Background(), "freelancer-1", "no-such-gig", validMessage, 100, 0, 0)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing gig: error = %v, want ErrNotFound", err)
	}

	// Only the one successful create published anything.
	if got := len(pub.all()); got != 1 {
		t.Errorf("published %d events, want 1", got)
	}
}

func TestBidCreate_NoNotificationOnFailure(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")
	store.bidErr = fmt.Errorf("storage exploded")

	_, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 100, 0, 0)
	if err == nil {
		t.Fatal("Create() succeeded despite storage error")
	}
	if len(pub.all()) != 0 {
		t.Error("a failed create must not publish a notification")
	}
}

func TestBidCreate_NotificationLookupFailureIsSuppressed(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	// The bid commits, but the post-commit gig lookup for the notification
	// fails. The caller must still get a success — notification delivery is
	// best-effort and never affects the committed outcome.
	store.gigErr = fmt.Errorf("read replica down")

	bid, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 100, 0, 0)
	if err != nil {
		t.Fatalf("Create() error = %v, want success despite notify failure", err)
	}
	if bid.ID == "" {
		t.Error("bid was not created")
	}
	if len(pub.all()) != 0 {
		t.Error("no event should be published when the lookup fails")
	}
}

func TestHire_Success(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")

	winner, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 400, 0, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(context.Background(), "freelancer-2", gig.ID, validMessage, 450, 0, 0); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := svc.Hire(context.Background(), "owner-1", winner.ID)
	if err != nil {
		t.Fatalf("Hire() error = %v", err)
	}
	if result.Bid.Status != model.BidStatusHired {
		t.Errorf("bid status = %q, want hired", result.Bid.Status)
	}
	if result.Gig.Status != model.GigStatusAssigned {
		t.Errorf("gig status = %q, want assigned", result.Gig.Status)
	}
	if result.RejectedBids != 1 {
		t.Errorf("RejectedBids = %d, want 1", result.RejectedBids)
	}

	// Two creates then the hire: last event is the hire notification,
	// addressed to the winning freelancer.
	events := pub.all()
	last := events[len(events)-1]
	if last.UserID != "freelancer-1" {
		t.Errorf("hire event sent to %q, want freelancer-1", last.UserID)
	}
	if last.Event.Type != "bid-hired" {
		t.Errorf("event type = %q, want bid-hired", last.Event.Type)
	}
	if !strings.Contains(last.Event.Message, "Build a landing page") {
		t.Errorf("hire message %q should name the gig", last.Event.Message)
	}
}

func TestHire_ErrorsPropagate(t *testing.T) {
	svc, store, pub := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")
	bid, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 400, 0, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	published := len(pub.all())

	if _, err := svc.Hire(context.Background(), "owner-1", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty bid ID: error = %v, want ErrValidation", err)
	}
	if _, err := svc.Hire(context.Background(), "owner-1", "no-such-bid"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing bid: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Hire(context.Background(), "intruder", bid.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner: error = %v, want ErrForbidden", err)
	}

	// Close the gig, then try again: Conflict, and still no new events.
	if _, err := svc.Hire(context.Background(), "owner-1", bid.ID); err != nil {
		t.Fatalf("Hire() error = %v", err)
	}
	if _, err := svc.Hire(context.Background(), "owner-1", bid.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second hire: error = %v, want ErrConflict", err)
	}

	// Exactly one hire event was added by the successful hire.
	if got := len(pub.all()); got != published+1 {
		t.Errorf("published %d events, want %d", got, published+1)
	}
}

func TestListByGig_OwnerOnly(t *testing.T) {
	svc, store, _ := newTestBidService(t)
	gig := store.addGig("owner-1", "Build a landing page")
	if _, err := svc.Create(context.Background(), "freelancer-1", gig.ID, validMessage, 400, 0, 0); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	bids, err := svc.ListByGig(context.Background(), "owner-1", gig.ID)
	if err != nil {
		t.Fatalf("ListByGig() as owner: error = %v", err)
	}
	if len(bids) != 1 {
		t.Errorf("len(bids) = %d, want 1", len(bids))
	}

	if _, err := svc.ListByGig(context.Background(), "freelancer-1", gig.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ListByGig() as non-owner: error = %v, want ErrForbidden", err)
	}

	if _, err := svc.ListByGig(context.Background(), "owner-1", "no-such-gig"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListByGig() for missing gig: error = %v, want ErrNotFound", err)
	}
}
