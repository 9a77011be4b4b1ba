package domain

import "time"

// Role classifies an account. An account is exactly one of COMPANY or
// DRIVER for its lifetime.
type Role string

const (
	RoleCompany Role = "COMPANY"
	RoleDriver  Role = "DRIVER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleDriver
}

// User represents an account in the marketplace.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Actor is the resolved identity of an authenticated caller.
type Actor struct {
	UserID int64
	Role   Role
}

// Caller identifies the requester of a read operation. The zero value is
// an anonymous caller; authenticated callers carry an Actor.
type Caller struct {
	Authenticated bool
	Actor         Actor
}

// AuthenticatedCaller wraps an actor as a caller.
func AuthenticatedCaller(actor Actor) Caller {
	return Caller{Authenticated: true, Actor: actor}
}

// AnonymousCaller returns a caller without an identity.
func AnonymousCaller() Caller {
	return Caller{}
}
