package domain

import "time"

// Reservation binds a trip to the driver who claimed it. At most one
// reservation exists per trip at any time; the store enforces this with
// a uniqueness constraint on the trip ID.
type Reservation struct {
	ID        string
	TripID    int64
	DriverID  int64
	CreatedAt time.Time
}
