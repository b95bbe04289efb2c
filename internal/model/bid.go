package model

import "time"

// Bid status values.
//
// A bid starts pending. The hire transaction moves exactly one bid per gig
// to hired and every other pending bid on that gig to rejected. Neither
// hired nor rejected is ever left again.
const (
	BidStatusPending  = "pending"
	BidStatusHired    = "hired"
	BidStatusRejected = "rejected"
)

// Bid represents a freelancer's proposal (price + message) against a specific gig.
//
// At most one bid may exist per (GigID, FreelancerID) pair — the database
// enforces this with a unique index, so even two racing requests cannot
// both insert.
type Bid struct {
	ID           string    `json:"id"           db:"id"`
	GigID        string    `json:"gigId"        db:"gig_id"`
	FreelancerID string    `json:"freelancerId" db:"freelancer_id"`
	Message      string    `json:"message"      db:"message"`
	Price        float64   `json:"price"        db:"price"`
	DeliveryTime int       `json:"deliveryTime" db:"delivery_time"` // days, defaults to 7
	Revisions    int       `json:"revisions"    db:"revisions"`     // defaults to 1
	Status       string    `json:"status"       db:"status"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`

	// Joined display fields, populated by list queries. FreelancerName and
	// FreelancerEmail come from the users table; GigTitle from gigs.
	FreelancerName  string `json:"freelancerName,omitempty"  db:"-"`
	FreelancerEmail string `json:"freelancerEmail,omitempty" db:"-"`
	GigTitle        string `json:"gigTitle,omitempty"        db:"-"`
}
