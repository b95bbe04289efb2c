package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/notify"
	"github.com/sakif/gigflow/internal/repository"
)

// Bid field constraints and defaults.
const (
	MinBidMessageLength = 10
	MaxBidMessageLength = 500
	MinBidPrice         = 1
	MaxBidPrice         = 1_000_000 // sanity bound, not a business rule

	DefaultDeliveryTime = 7 // days
	DefaultRevisions    = 1
)

// Publisher is the notification side channel the engine emits into after
// commit. notify.Hub satisfies it; tests substitute a recorder.
//
// The engine only ever publishes — it has no access to the subscriber
// registry, and a Publish that reaches nobody is not an error.
type Publisher interface {
	Publish(userID string, event notify.Event)
}

// BidService is the bid/hire transaction engine. Its two entry points,
// Create and Hire, each execute as a single atomic unit in the storage
// layer; the notification fan-out runs strictly after commit and is
// best-effort by design.
type BidService struct {
	bids      repository.BidRepository
	gigs      repository.GigRepository
	publisher Publisher
	logger    *slog.Logger
}

func NewBidService(
	bids repository.BidRepository,
	gigs repository.GigRepository,
	publisher Publisher,
	logger *slog.Logger,
) *BidService {
	return &BidService{
		bids:      bids,
		gigs:      gigs,
		publisher: publisher,
		logger:    logger,
	}
}

// Create places a bid by the acting freelancer on a gig.
//
// Field validation happens here; the state-machine preconditions (gig open,
// no self-bid, no duplicate) are checked inside the storage transaction so
// they hold under concurrency. Outcomes:
//
//	NotFound  — gig doesn't exist
//	Conflict  — gig closed, or a bid from this freelancer already exists
//	Forbidden — freelancer owns the gig
//
// On success the gig owner is notified, post-commit, best-effort.
func (s *BidService) Create(ctx context.Context, freelancerID, gigID, message string, price float64, deliveryTime, revisions int) (*model.Bid, error) {
	message = strings.TrimSpace(message)
	gigID = strings.TrimSpace(gigID)

	if gigID == "" {
		return nil, apperror.ValidationFailed("gigId", "gig ID is required")
	}
	if len(message) < MinBidMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be at least %d characters", MinBidMessageLength))
	}
	if len(message) > MaxBidMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message cannot exceed %d characters", MaxBidMessageLength))
	}
	if price < MinBidPrice {
		return nil, apperror.ValidationFailed("price", "bid price must be at least $1")
	}
	if price > MaxBidPrice {
		return nil, apperror.ValidationFailed("price", "bid price exceeds the maximum allowed")
	}
	if deliveryTime <= 0 {
		deliveryTime = DefaultDeliveryTime
	}
	if revisions <= 0 {
		revisions = DefaultRevisions
	}

	bid := &model.Bid{
		GigID:        gigID,
		FreelancerID: freelancerID,
		Message:      message,
		Price:        price,
		DeliveryTime: deliveryTime,
		Revisions:    revisions,
	}

	if err := s.bids.CreateBid(ctx, bid); err != nil {
		return nil, err
	}

	s.logger.Info("bid created",
		slog.String("id", bid.ID),
		slog.String("gigId", gigID),
		slog.String("freelancerId", freelancerID),
	)

	// Post-commit, outside the atomic boundary: tell the gig owner. A
	// failure here is logged and dropped — it can never unwind the bid.
	s.notifyNewBid(ctx, bid)

	return bid, nil
}

func (s *BidService) notifyNewBid(ctx context.Context, bid *model.Bid) {
	gig, err := s.gigs.GetGigByID(ctx, bid.GigID)
	if err != nil {
		s.logger.Warn("skipping new-bid notification",
			slog.String("gigId", bid.GigID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.publisher.Publish(gig.OwnerID, notify.Event{
		Type:    "new-bid",
		Message: fmt.Sprintf("You received a new bid on %q", gig.Title),
		GigID:   gig.ID,
		BidID:   bid.ID,
	})
}

// Hire selects bidID as the winner on behalf of the acting gig owner.
//
// The whole transition — gig open→assigned, winner pending→hired, every
// other pending bid on the gig →rejected — commits atomically or not at
// all. There is no bid ranking: the first hire request to observe the gig
// open and commit wins; concurrent attempts on the same gig lose with
// Conflict. Outcomes:
//
//	NotFound  — bid doesn't exist
//	Forbidden — actor doesn't own the bid's gig
//	Conflict  — gig already left "open" (someone else hired first)
//
// The winning freelancer is notified post-commit, best-effort.
func (s *BidService) Hire(ctx context.Context, ownerID, bidID string) (*repository.HireResult, error) {
	bidID = strings.TrimSpace(bidID)
	if bidID == "" {
		return nil, apperror.ValidationFailed("bidId", "bid ID is required")
	}

	result, err := s.bids.HireBid(ctx, bidID, ownerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("freelancer hired",
		slog.String("gigId", result.Gig.ID),
		slog.String("bidId", result.Bid.ID),
		slog.String("freelancerId", result.Bid.FreelancerID),
		slog.Int64("rejectedBids", result.RejectedBids),
	)

	s.publisher.Publish(result.Bid.FreelancerID, notify.Event{
		Type:    "bid-hired",
		Message: fmt.Sprintf("Congratulations! You have been hired for %q", result.Gig.Title),
		GigID:   result.Gig.ID,
		BidID:   result.Bid.ID,
	})

	return result, nil
}

// ListByGig returns all bids on a gig — owner only. Freelancers cannot
// inspect each other's offers.
func (s *BidService) ListByGig(ctx context.Context, actorID, gigID string) ([]model.Bid, error) {
	gigID = strings.TrimSpace(gigID)
	if gigID == "" {
		return nil, apperror.ValidationFailed("gigId", "gig ID is required")
	}

	gig, err := s.gigs.GetGigByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if gig.OwnerID != actorID {
		return nil, apperror.Forbidden("not authorized to view these bids")
	}

	return s.bids.ListBidsByGig(ctx, gigID)
}

// ListMine returns every bid the acting freelancer has placed.
func (s *BidService) ListMine(ctx context.Context, freelancerID string) ([]model.Bid, error) {
	bids, err := s.bids.ListBidsByFreelancer(ctx, freelancerID)
	if err != nil {
		s.logger.Error("failed to list own bids",
			slog.String("freelancerId", freelancerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing own bids: %w", err)
	}
	return bids, nil
}
