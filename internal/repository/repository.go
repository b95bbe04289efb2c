// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/gigflow/internal/model"
)

// GigListOptions controls the open-gig listing: optional full-text search
// over title/description plus limit/offset pagination.
type GigListOptions struct {
	Search string
	Limit  int
	Offset int
}

// HireResult is what the hire transaction reports back after commit.
// Everything in it reflects post-commit state: the winning bid is hired,
// the gig assigned, and RejectedBids counts the pending bids that were
// swept to rejected in the same transaction.
type HireResult struct {
	Bid          *model.Bid
	Gig          *model.Gig
	RejectedBids int64
}

type UserRepository interface {
	// Create inserts a new user. Returns a Conflict error if the email is
	// already registered (enforced by a unique index, not just a pre-check).
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type GigRepository interface {
	CreateGig(ctx context.Context, gig *model.Gig) error
	GetGigByID(ctx context.Context, id string) (*model.Gig, error)
	// ListOpenGigs returns open gigs newest first, plus the total count of
	// matching rows so callers can compute page numbers.
	ListOpenGigs(ctx context.Context, opts GigListOptions) ([]model.Gig, int, error)
	ListGigsByOwner(ctx context.Context, ownerID string) ([]model.Gig, error)
}

type BidRepository interface {
	// CreateBid runs the create-bid protocol as a single transaction:
	// gig must exist and be open, the bidder must not own the gig, and the
	// (gig, freelancer) pair must not already have a bid. The unique index
	// on (gig_id, freelancer_id) is the authoritative duplicate guard —
	// two racing inserts cannot both succeed.
	CreateBid(ctx context.Context, bid *model.Bid) error

	// HireBid runs the hire protocol as a single transaction: the actor
	// must own the gig, the gig must still be open; then the gig becomes
	// assigned, the bid hired, and every other pending bid on the gig
	// rejected. Concurrent hire attempts on the same gig are serialized so
	// that exactly one observes "open"; the rest get a Conflict error.
	HireBid(ctx context.Context, bidID, ownerID string) (*HireResult, error)

	ListBidsByGig(ctx context.Context, gigID string) ([]model.Bid, error)
	ListBidsByFreelancer(ctx context.Context, freelancerID string) ([]model.Bid, error)
}
