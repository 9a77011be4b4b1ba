package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusOpen      TripStatus = "OPEN"
	TripStatusReserved  TripStatus = "RESERVED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// Terminal reports whether no further transition may leave this status.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// Trip represents one transport offer published by a company.
// Descriptive fields are immutable after creation; only Status changes,
// and only through TripService transitions.
type Trip struct {
	ID              int64
	CompanyID       int64
	Origin          string
	Destination     string
	Date            string // optional, YYYY-MM-DD
	TimeWindow      string // optional, free-form ("08:00-12:00")
	CompensationSEK int64
	VehicleInfo     string // optional
	Status          TripStatus
	CreatedAt       time.Time
}
