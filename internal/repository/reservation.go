package repository

import (
	"context"

	"haulmatch/internal/domain"
)

// ReservationRepository defines the persistence operations for reservations.
type ReservationRepository interface {
	// Create persists a new reservation. Returns ErrDuplicate when the
	// trip already has a reservation (the per-trip uniqueness constraint).
	Create(ctx context.Context, reservation *domain.Reservation) error

	// GetByTripID retrieves the reservation for a trip.
	GetByTripID(ctx context.Context, tripID int64) (*domain.Reservation, error)

	// DeleteByTripID removes the reservation for a trip, if any.
	DeleteByTripID(ctx context.Context, tripID int64) error

	// DeleteForDriver removes the reservation for a trip only if the
	// given driver holds it. Returns ErrNotFound when no such
	// reservation exists, so a stale unclaim rolls back instead of
	// deleting another driver's claim.
	DeleteForDriver(ctx context.Context, tripID, driverID int64) error
}
