package ports

import (
	"context"
	"delivery-sequencing-service/internal/domain"
)

// Cache of origin->destination travel estimates keyed by normalized address.
type TravelCache interface {
	// Return the cached estimate and whether it was present.
	GetTravel(ctx context.Context, origin, destination string) (TravelEstimate, bool, error)
	PutTravel(ctx context.Context, origin, destination string, est TravelEstimate) error
}

// Cache of address -> coordinates lookups.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
