package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/gigflow/internal/apperror"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/repository"
)

// compile-time check that *DB implements repository.BidRepository
var _ repository.BidRepository = (*DB)(nil)

// CreateBid runs the create-bid protocol as one transaction.
//
// PROTOCOL:
//  1. Read the gig. Absent → NotFound. Not open → Conflict.
//  2. Bidder owns the gig → Forbidden.
//  3. Insert the bid as pending.
//
// The SELECT of an existing bid before the INSERT is only a fast path for a
// friendlier error; the UNIQUE index on (gig_id, freelancer_id) is the
// authoritative duplicate guard. Two requests racing past the pre-check both
// reach the INSERT, and exactly one survives — the other gets the constraint
// violation, which we translate to the same Conflict.
//
// All checks and the insert run inside one sql.Tx on the single pooled
// connection, so no concurrent hire can close the gig between step 1 and
// step 3. Any failure rolls the whole unit back: no orphan rows, ever.
func (db *DB) CreateBid(ctx context.Context, bid *model.Bid) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning create-bid tx: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	var ownerID, status string
	err = tx.QueryRowContext(ctx,
		`SELECT owner_id, status FROM gigs WHERE id = ?`, bid.GigID,
	).Scan(&ownerID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("gig", bid.GigID)
		}
		return fmt.Errorf("sqlite: reading gig %s for bid: %w", bid.GigID, err)
	}

	if status != model.GigStatusOpen {
		return apperror.Conflict("this gig is no longer accepting bids")
	}
	if ownerID == bid.FreelancerID {
		return apperror.Forbidden("you cannot bid on your own gig")
	}

	// Fast path: report the duplicate before paying for a failed insert.
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE gig_id = ? AND freelancer_id = ?`,
		bid.GigID, bid.FreelancerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking existing bid: %w", err)
	}
	if exists > 0 {
		return apperror.Conflict("you have already bid on this gig")
	}

	bid.ID = xid.New().String()
	bid.Status = model.BidStatusPending
	bid.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (id, gig_id, freelancer_id, message, price, delivery_time, revisions, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bid.ID,
		bid.GigID,
		bid.FreelancerID,
		bid.Message,
		bid.Price,
		bid.DeliveryTime,
		bid.Revisions,
		bid.Status,
		bid.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("you have already bid on this gig")
		}
		return fmt.Errorf("sqlite: inserting bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing create-bid tx: %w", err)
	}
	return nil
}

// HireBid runs the hire protocol as one transaction.
//
// PROTOCOL:
//  1. Read the bid joined with its gig. Absent → NotFound.
//  2. Actor doesn't own the gig → Forbidden.
//  3. Gig not open → Conflict. This check is the linchpin: it's what makes
//     "hire exactly once" hold under concurrent hire attempts.
//  4. gig → assigned, winning bid → hired, every other pending bid on the
//     gig → rejected, all in the same unit.
//
// The gig-status UPDATE is guarded with "AND status = 'open'" and its
// RowsAffected checked — a compare-and-swap inside the transaction. Even if
// step 3's read were somehow stale, the CAS cannot flip an assigned gig, so
// two hires can never both commit the transition.
//
// There is no ranking: the first hire request to observe the gig open and
// commit wins. Losers get Conflict, a terminal outcome — the engine never
// retries on the caller's behalf.
func (db *DB) HireBid(ctx context.Context, bidID, ownerID string) (*repository.HireResult, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning hire tx: %w", err)
	}
	defer tx.Rollback()

	var bid model.Bid
	var gig model.Gig
	err = tx.QueryRowContext(ctx,
		`SELECT b.id, b.gig_id, b.freelancer_id, b.message, b.price,
		        b.delivery_time, b.revisions, b.status, b.created_at,
		        g.id, g.title, g.description, g.budget, g.owner_id, g.status, g.created_at
		 FROM bids b
		 JOIN gigs g ON g.id = b.gig_id
		 WHERE b.id = ?`,
		bidID,
	).Scan(
		&bid.ID, &bid.GigID, &bid.FreelancerID, &bid.Message, &bid.Price,
		&bid.DeliveryTime, &bid.Revisions, &bid.Status, &bid.CreatedAt,
		&gig.ID, &gig.Title, &gig.Description, &gig.Budget, &gig.OwnerID, &gig.Status, &gig.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("bid", bidID)
		}
		return nil, fmt.Errorf("sqlite: reading bid %s for hire: %w", bidID, err)
	}

	if gig.OwnerID != ownerID {
		return nil, apperror.Forbidden("not authorized to hire for this gig")
	}
	if gig.Status != model.GigStatusOpen {
		return nil, apperror.Conflict("gig is no longer open for hiring")
	}

	// Compare-and-swap on gig status. RowsAffected must be exactly 1;
	// 0 means another hire already closed the gig.
	res, err := tx.ExecContext(ctx,
		`UPDATE gigs SET status = ? WHERE id = ? AND status = ?`,
		model.GigStatusAssigned, gig.ID, model.GigStatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: assigning gig %s: %w", gig.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking gig update: %w", err)
	}
	if affected == 0 {
		return nil, apperror.Conflict("gig is no longer open for hiring")
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE id = ?`,
		model.BidStatusHired, bid.ID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: marking bid %s hired: %w", bid.ID, err)
	}

	// Sweep the losers: only bids still pending on this gig. Bids already
	// rejected, and bids on other gigs, are untouched.
	res, err = tx.ExecContext(ctx,
		`UPDATE bids SET status = ? WHERE gig_id = ? AND id != ? AND status = ?`,
		model.BidStatusRejected, gig.ID, bid.ID, model.BidStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: rejecting losing bids for gig %s: %w", gig.ID, err)
	}
	rejected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rejected bids: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing hire tx: %w", err)
	}

	bid.Status = model.BidStatusHired
	bid.GigTitle = gig.Title
	gig.Status = model.GigStatusAssigned

	return &repository.HireResult{
		Bid:          &bid,
		Gig:          &gig,
		RejectedBids: rejected,
	}, nil
}

// ListBidsByGig returns all bids on a gig, newest first, joined with each
// freelancer's display fields. Read-only; never filters by status so owners
// see the full history after a hire.
func (db *DB) ListBidsByGig(ctx context.Context, gigID string) ([]model.Bid, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.gig_id, b.freelancer_id, b.message, b.price,
		        b.delivery_time, b.revisions, b.status, b.created_at,
		        u.name, u.email
		 FROM bids b
		 JOIN users u ON u.id = b.freelancer_id
		 WHERE b.gig_id = ?
		 ORDER BY b.created_at DESC`,
		gigID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bids for gig %s: %w", gigID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(
			&b.ID, &b.GigID, &b.FreelancerID, &b.Message, &b.Price,
			&b.DeliveryTime, &b.Revisions, &b.Status, &b.CreatedAt,
			&b.FreelancerName, &b.FreelancerEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning bid row: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bids: %w", err)
	}

	return bids, nil
}

// ListBidsByFreelancer returns every bid a freelancer has placed, newest
// first, with the gig title joined in for display.
func (db *DB) ListBidsByFreelancer(ctx context.Context, freelancerID string) ([]model.Bid, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT b.id, b.gig_id, b.freelancer_id, b.message, b.price,
		        b.delivery_time, b.revisions, b.status, b.created_at,
		        g.title
		 FROM bids b
		 JOIN gigs g ON g.id = b.gig_id
		 WHERE b.freelancer_id = ?
		 ORDER BY b.created_at DESC`,
		freelancerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing bids for freelancer %s: %w", freelancerID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(
			&b.ID, &b.GigID, &b.FreelancerID, &b.Message, &b.Price,
			&b.DeliveryTime, &b.Revisions, &b.Status, &b.CreatedAt,
			&b.GigTitle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning bid row: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating bids: %w", err)
	}

	return bids, nil
}
