// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account — either a client posting gigs,
// a freelancer placing bids, or both. The marketplace does not distinguish
// roles at the account level; the same user may own gigs and bid on others'
// (just never on their own).
//
// WHY PasswordHash HAS json:"-"?
// The `json:"-"` tag tells encoding/json to NEVER serialize this field.
// Without it, any handler that encodes a User to JSON would leak the bcrypt
// hash to the client. Marking it at the model level is safer than remembering
// to strip it in every handler.
//
// Identity is immutable once created: nothing in the core mutates a User row
// after registration.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
