package redis

import (
	"context"

	"haulmatch/internal/domain"
)

// TripCacheInterface abstracts the trip listing cache for testing.
type TripCacheInterface interface {
	GetOpenTrips(ctx context.Context) ([]*domain.Trip, error)
	SetOpenTrips(ctx context.Context, trips []*domain.Trip) error
	InvalidateOpenTrips(ctx context.Context) error
}

// Ensure TripCache implements TripCacheInterface.
var _ TripCacheInterface = (*TripCache)(nil)
