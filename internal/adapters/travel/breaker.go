package travel

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerEstimator wraps an estimator with a circuit breaker. Once the
// upstream keeps failing, calls fail fast with ErrEstimatorUnavailable
// until the open timeout elapses.
type BreakerEstimator struct {
	next ports.TravelEstimator
	cb   *gobreaker.CircuitBreaker[ports.TravelEstimate]
}

func NewBreakerEstimator(next ports.TravelEstimator, failures uint32, openTimeout time.Duration) *BreakerEstimator {
	if failures == 0 {
		failures = 5
	}

	st := gobreaker.Settings{
		Name:        "travel-estimator",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		// Bad input and caller cancellation say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrInvalidArgument) ||
				errors.Is(err, context.Canceled)
		},
	}

	return &BreakerEstimator{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[ports.TravelEstimate](st),
	}
}

func (b *BreakerEstimator) EstimateTravel(ctx context.Context, from, to string) (ports.TravelEstimate, error) {
	est, err := b.cb.Execute(func() (ports.TravelEstimate, error) {
		return b.next.EstimateTravel(ctx, from, to)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ports.TravelEstimate{}, fmt.Errorf("%w: %w", domain.ErrEstimatorUnavailable, err)
	}
	return est, err
}

// State exposes the breaker state for health reporting.
func (b *BreakerEstimator) State() string {
	return b.cb.State().String()
}
