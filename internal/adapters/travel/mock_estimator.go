package travel

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/ports"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

type MockPair struct {
	From, To string
	Meters   int
	Seconds  int
}

// MockEstimator serves fixed estimates keyed by normalized address pair.
// Pairs can be made to fail or to stall for a given duration.
type MockEstimator struct {
	m     map[string]ports.TravelEstimate
	mu    sync.Mutex
	fail  map[string]error
	delay map[string]time.Duration
	calls atomic.Int64
}

func NewMockEstimator(pairs []MockPair) *MockEstimator {
	m := make(map[string]ports.TravelEstimate, len(pairs))
	for _, p := range pairs {
		m[pairKey(p.From, p.To)] = ports.TravelEstimate{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockEstimator{
		m:     m,
		fail:  make(map[string]error),
		delay: make(map[string]time.Duration),
	}
}

// FailPair makes every estimate for from -> to return err.
func (p *MockEstimator) FailPair(from, to string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[pairKey(from, to)] = err
}

// DelayPair stalls estimates for from -> to until d elapses or ctx ends.
func (p *MockEstimator) DelayPair(from, to string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay[pairKey(from, to)] = d
}

// Calls reports how many estimates were requested.
func (p *MockEstimator) Calls() int64 { return p.calls.Load() }

func (p *MockEstimator) EstimateTravel(ctx context.Context, origin, destination string) (ports.TravelEstimate, error) {
	p.calls.Add(1)
	key := pairKey(origin, destination)

	p.mu.Lock()
	d := p.delay[key]
	failErr := p.fail[key]
	p.mu.Unlock()

	if d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ports.TravelEstimate{}, ctx.Err()
		case <-timer.C:
		}
	}

	if failErr != nil {
		return ports.TravelEstimate{}, failErr
	}

	r, ok := p.m[key]
	if !ok {
		return ports.TravelEstimate{}, fmt.Errorf("missing pair %q -> %q", origin, destination)
	}

	return r, nil
}

func pairKey(from, to string) string {
	return domain.NormalizeAddress(from) + "|" + domain.NormalizeAddress(to)
}
