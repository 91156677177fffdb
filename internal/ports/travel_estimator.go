package ports

import "context"

// Estimated drive between two addresses.
type TravelEstimate struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for estimating travel between two addresses.
// Implementations may fail per pair; callers treat a failure as "unknown".
type TravelEstimator interface {
	EstimateTravel(ctx context.Context, fromAddress, toAddress string) (TravelEstimate, error)
}
