package repository

import (
	"context"

	"haulmatch/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip and assigns its ID.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id int64) (*domain.Trip, error)

	// ListByStatus retrieves all trips with the given status.
	ListByStatus(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error)

	// ListByCompany retrieves a company's trips, newest first.
	ListByCompany(ctx context.Context, companyID int64) ([]*domain.Trip, error)

	// ListByDriverReservation retrieves the trips a driver holds or held a
	// reservation on, newest first.
	ListByDriverReservation(ctx context.Context, driverID int64) ([]*domain.Trip, error)

	// UpdateStatus transitions a trip to the given status, conditional on
	// its current status being one of from. Returns ErrStatusConflict when
	// no row matched.
	UpdateStatus(ctx context.Context, id int64, to domain.TripStatus, from ...domain.TripStatus) error
}
