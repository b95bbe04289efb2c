package model

import "time"

// Gig status values.
//
// A gig's status only ever moves open → assigned, and only as a side effect
// of exactly one successful hire. There is no transition back: once a gig is
// assigned it stays assigned.
const (
	GigStatusOpen     = "open"
	GigStatusAssigned = "assigned"
)

// Gig represents a client-posted project listing with a fixed budget.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON. For example, when we marshal a Gig:
//
//	gig := Gig{ID: "abc", Title: "Build a landing page"}
//	json.Marshal(gig) → {"id":"abc","title":"Build a landing page",...}
type Gig struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"`
	Budget      float64   `json:"budget"      db:"budget"`
	OwnerID     string    `json:"ownerId"     db:"owner_id"`
	Status      string    `json:"status"      db:"status"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`

	// OwnerName and OwnerEmail are populated by list/get queries that join
	// the users table, so the API can show who posted a gig without a second
	// round trip. They are never written back.
	OwnerName  string `json:"ownerName,omitempty"  db:"-"`
	OwnerEmail string `json:"ownerEmail,omitempty" db:"-"`
}
