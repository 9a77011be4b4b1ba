package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"haulmatch/internal/domain"
)

const (
	openTripsKey = "cache:trips:open"
	openTripsTTL = 30 * time.Second
)

// TripCache caches the open-trip listing. The listing is a snapshot read
// with high read volume relative to transitions, so a short TTL plus
// invalidation on every transition keeps it honest.
type TripCache struct {
	client *redis.Client
}

// NewTripCache creates a new TripCache.
func NewTripCache(client *redis.Client) *TripCache {
	return &TripCache{client: client}
}

// GetOpenTrips returns the cached open-trip listing, or nil on a miss.
func (c *TripCache) GetOpenTrips(ctx context.Context) ([]*domain.Trip, error) {
	data, err := c.client.Get(ctx, openTripsKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []*domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// SetOpenTrips stores the open-trip listing.
func (c *TripCache) SetOpenTrips(ctx context.Context, trips []*domain.Trip) error {
	data, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, openTripsKey, data, openTripsTTL).Err()
}

// InvalidateOpenTrips drops the cached listing.
func (c *TripCache) InvalidateOpenTrips(ctx context.Context) error {
	return c.client.Del(ctx, openTripsKey).Err()
}
