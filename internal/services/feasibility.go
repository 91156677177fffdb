package services

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultEstimateConcurrency = 4
	DefaultEstimateTimeout     = 8 * time.Second
)

// FeasibilityReporter checks whether consecutive stops of a group leave
// enough time for the drive between them.
type FeasibilityReporter struct {
	store        ports.AssignmentStore
	reservations ports.ReservationRepository
	estimator    ports.TravelEstimator
	concurrency  int
	pairTimeout  time.Duration
}

// NewFeasibilityReporter builds a reporter. A nil estimator reports every
// pair as unknown.
func NewFeasibilityReporter(
	store ports.AssignmentStore,
	reservations ports.ReservationRepository,
	estimator ports.TravelEstimator,
	concurrency int,
	pairTimeout time.Duration,
) *FeasibilityReporter {
	if concurrency <= 0 {
		concurrency = DefaultEstimateConcurrency
	}
	if pairTimeout <= 0 {
		pairTimeout = DefaultEstimateTimeout
	}
	return &FeasibilityReporter{
		store:        store,
		reservations: reservations,
		estimator:    estimator,
		concurrency:  concurrency,
		pairTimeout:  pairTimeout,
	}
}

// ComputeFeasibility returns one verdict per adjacent pair in the group's
// current order. Estimates are fetched concurrently; a failed, missing or
// timed-out estimate marks only its own pair as unknown.
func (r *FeasibilityReporter) ComputeFeasibility(ctx context.Context, groupID uuid.UUID) (_ []domain.PairResult, err error) {
	defer obs.Time(ctx, "feasibility.ComputeFeasibility")(&err)

	if _, err := r.store.GetGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("compute feasibility: %w", err)
	}

	stops, err := r.store.ListAssignments(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("compute feasibility: %w", err)
	}
	if len(stops) < 2 {
		return []domain.PairResult{}, nil
	}

	reservations := make([]*domain.Reservation, 0, len(stops))
	for _, a := range stops {
		res, err := r.reservations.GetReservation(ctx, a.ReservationID)
		if err != nil {
			return nil, fmt.Errorf("compute feasibility: %w", err)
		}
		reservations = append(reservations, res)
	}

	results := make([]domain.PairResult, len(stops)-1)

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i := range results {
		from, to := reservations[i], reservations[i+1]
		results[i] = domain.PairResult{
			Index:               i + 1,
			FromReservationID:   from.ID,
			ToReservationID:     to.ID,
			FromAddress:         from.Address,
			ToAddress:           to.Address,
			ScheduledGapSeconds: int64(to.ScheduledAt.Sub(from.ScheduledAt) / time.Second),
		}

		g.Go(func() error {
			results[i] = r.evaluate(ctx, results[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compute feasibility: %w", err)
	}

	return results, nil
}

func (r *FeasibilityReporter) evaluate(ctx context.Context, pr domain.PairResult) domain.PairResult {
	if r.estimator == nil {
		pr.Verdict = domain.VerdictUnknown
		pr.Reason = "travel estimation is not configured"
		return pr
	}

	pairCtx, cancel := context.WithTimeout(ctx, r.pairTimeout)
	defer cancel()

	est, err := r.estimator.EstimateTravel(pairCtx, pr.FromAddress, pr.ToAddress)
	if err != nil {
		pr.Verdict = domain.VerdictUnknown
		pr.Reason = unknownReason(err)
		slog.Warn("travel estimate unavailable",
			"req_id", obs.RequestID(ctx), "pair", pr.Index,
			"from", pr.FromReservationID, "to", pr.ToReservationID, "err", err)
		return pr
	}

	pr.TravelSeconds = int64(est.DurationSeconds)
	pr.Verdict = domain.ClassifyGap(pr.ScheduledGapSeconds, pr.TravelSeconds)
	return pr
}

func unknownReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "travel estimate timed out"
	case errors.Is(err, domain.ErrEstimatorUnavailable):
		return "travel estimator unavailable"
	default:
		return "travel estimate failed: " + err.Error()
	}
}
