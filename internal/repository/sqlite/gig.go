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

// compile-time check that *DB implements repository.GigRepository
var _ repository.GigRepository = (*DB)(nil)

// CreateGig inserts a new gig with status "open".
//
// The status column is set here, not taken from the caller — a gig can only
// be born open, and only the hire transaction ever moves it to assigned.
func (db *DB) CreateGig(ctx context.Context, gig *model.Gig) error {
	gig.ID = xid.New().String()
	gig.Status = model.GigStatusOpen
	gig.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO gigs (id, title, description, budget, owner_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gig.ID,
		gig.Title,
		gig.Description,
		gig.Budget,
		gig.OwnerID,
		gig.Status,
		gig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting gig: %w", err)
	}

	return nil
}

// GetGigByID retrieves a single gig joined with its owner's display fields.
func (db *DB) GetGigByID(ctx context.Context, id string) (*model.Gig, error) {
	var gig model.Gig
	err := db.conn.QueryRowContext(ctx,
		`SELECT g.id, g.title, g.description, g.budget, g.owner_id, g.status, g.created_at,
		        u.name, u.email
		 FROM gigs g
		 JOIN users u ON u.id = g.owner_id
		 WHERE g.id = ?`,
		id,
	).Scan(
		&gig.ID, &gig.Title, &gig.Description, &gig.Budget,
		&gig.OwnerID, &gig.Status, &gig.CreatedAt,
		&gig.OwnerName, &gig.OwnerEmail,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("gig", id)
		}
		return nil, fmt.Errorf("sqlite: getting gig %s: %w", id, err)
	}

	return &gig, nil
}

// ListOpenGigs returns open gigs newest first, with optional substring search
// over title and description, plus the total match count for pagination.
//
// Two queries run here (COUNT + page), both read-only against the same
// WHERE clause. Read paths never touch gig status, so no transaction is
// needed — a hire committing between the two queries can at worst shrink
// the page by a row, which pagination tolerates.
func (db *DB) ListOpenGigs(ctx context.Context, opts repository.GigListOptions) ([]model.Gig, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where := `g.status = 'open'`
	args := []any{}
	if opts.Search != "" {
		where += ` AND (g.title LIKE ? OR g.description LIKE ?)`
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM gigs g WHERE ` + where
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting open gigs: %w", err)
	}

	query := `SELECT g.id, g.title, g.description, g.budget, g.owner_id, g.status, g.created_at,
	                 u.name, u.email
	          FROM gigs g
	          JOIN users u ON u.id = g.owner_id
	          WHERE ` + where + `
	          ORDER BY g.created_at DESC
	          LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing open gigs: %w", err)
	}
	defer rows.Close()

	gigs := make([]model.Gig, 0, limit)
	for rows.Next() {
		var g model.Gig
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Description, &g.Budget,
			&g.OwnerID, &g.Status, &g.CreatedAt,
			&g.OwnerName, &g.OwnerEmail,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning gig row: %w", err)
		}
		gigs = append(gigs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating gigs: %w", err)
	}

	return gigs, total, nil
}

// ListGigsByOwner returns every gig posted by a user, newest first,
// regardless of status — owners see their assigned gigs too.
func (db *DB) ListGigsByOwner(ctx context.Context, ownerID string) ([]model.Gig, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.title, g.description, g.budget, g.owner_id, g.status, g.created_at,
		        u.name, u.email
		 FROM gigs g
		 JOIN users u ON u.id = g.owner_id
		 WHERE g.owner_id = ?
		 ORDER BY g.created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing gigs for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var gigs []model.Gig
	for rows.Next() {
		var g model.Gig
		if err := rows.Scan(
			&g.ID, &g.Title, &g.Description, &g.Budget,
			&g.OwnerID, &g.Status, &g.CreatedAt,
			&g.OwnerName, &g.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning gig row: %w", err)
		}
		gigs = append(gigs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating gigs: %w", err)
	}

	return gigs, nil
}
