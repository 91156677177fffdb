package travel

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerEstimator_OpensAfterConsecutiveFailures(t *testing.T) {
	mock := NewMockEstimator(nil)
	mock.FailPair("A", "B", errors.New("upstream down"))
	b := NewBreakerEstimator(mock, 2, time.Minute)

	for range 2 {
		_, err := b.EstimateTravel(context.Background(), "A", "B")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrEstimatorUnavailable)
	}

	_, err := b.EstimateTravel(context.Background(), "A", "B")
	assert.ErrorIs(t, err, domain.ErrEstimatorUnavailable)
	assert.EqualValues(t, 2, mock.Calls())
	assert.Equal(t, "open", b.State())
}

func TestBreakerEstimator_IgnoresInvalidArguments(t *testing.T) {
	mock := NewMockEstimator([]MockPair{{From: "A", To: "C", Meters: 10, Seconds: 60}})
	mock.FailPair("A", "B", fmt.Errorf("bad: %w", domain.ErrInvalidArgument))
	b := NewBreakerEstimator(mock, 2, time.Minute)

	for range 5 {
		_, err := b.EstimateTravel(context.Background(), "A", "B")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	got, err := b.EstimateTravel(context.Background(), "A", "C")
	require.NoError(t, err)
	assert.Equal(t, 60, got.DurationSeconds)
	assert.Equal(t, "closed", b.State())
}
