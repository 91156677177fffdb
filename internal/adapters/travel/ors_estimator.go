package travel

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ORSEstimator implements TravelEstimator using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Travel estimate caching (optional)
//   - Geocode caching (optional)
//   - External API calls with retry/backoff
//
// The estimator is safe for concurrent use.
type ORSEstimator struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	travelCache  ports.TravelCache
	geocodeCache ports.GeocodeCache
}

type ORSOption func(*ORSEstimator)

// WithBaseURL points the estimator at another ORS deployment.
func WithBaseURL(u string) ORSOption { return func(o *ORSEstimator) { o.baseURL = u } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ORSOption { return func(o *ORSEstimator) { o.session = c } }

// WithCountry restricts geocoding to one ISO country code.
func WithCountry(code string) ORSOption { return func(o *ORSEstimator) { o.country = code } }

// WithProfile selects the ORS routing profile (default driving-car).
func WithProfile(p string) ORSOption { return func(o *ORSEstimator) { o.profile = p } }

func NewORSEstimator(
	apiKey string,
	travelCache ports.TravelCache,
	geocodeCache ports.GeocodeCache,
	opts ...ORSOption,
) (*ORSEstimator, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	o := &ORSEstimator{
		session:      &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      "driving-car",
		travelCache:  travelCache,
		geocodeCache: geocodeCache,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// EstimateTravel returns the driving estimate between two addresses.
// Upstream failures wrap domain.ErrEstimatorUnavailable.
func (o *ORSEstimator) EstimateTravel(
	ctx context.Context,
	fromAddress string,
	toAddress string,
) (_ ports.TravelEstimate, err error) {
	defer obs.Time(ctx, "ors.EstimateTravel")(&err)

	origin := domain.NormalizeAddress(fromAddress)
	destination := domain.NormalizeAddress(toAddress)
	if origin == "" || destination == "" {
		return ports.TravelEstimate{}, fmt.Errorf(
			"ORS estimate: %w: origin and destination must be non-empty",
			domain.ErrInvalidArgument,
		)
	}

	if origin == destination {
		return ports.TravelEstimate{}, nil
	}

	// Check the travel cache before issuing external API calls.
	if o.travelCache != nil {
		est, ok, err := o.travelCache.GetTravel(ctx, origin, destination)
		if err != nil {
			slog.Warn("travel cache read failed", "err", err)
		} else if ok {
			return est, nil
		}
	}

	coords, err := o.resolve(ctx, []string{origin, destination})
	if err != nil {
		return ports.TravelEstimate{}, o.unavailable(origin, destination, err)
	}

	row, err := o.fetchMatrixRow(ctx, coords[origin], []string{destination}, []domain.Coordinates{coords[destination]})
	if err != nil {
		return ports.TravelEstimate{}, o.unavailable(origin, destination, err)
	}

	est, ok := row[destination]
	if !ok {
		return ports.TravelEstimate{}, o.unavailable(origin, destination, errors.New("matrix returned no result"))
	}

	if o.travelCache != nil {
		if err := o.travelCache.PutTravel(ctx, origin, destination, est); err != nil {
			slog.Warn("travel cache write failed", "err", err)
		}
	}

	return est, nil
}

// resolve returns coordinates for every address, consulting the geocode
// cache first and storing fresh lookups back into it.
func (o *ORSEstimator) resolve(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	hits := make(map[string]domain.Coordinates)
	if o.geocodeCache != nil {
		cached, err := o.geocodeCache.GetMany(ctx, addresses)
		if err != nil {
			slog.Warn("geocode cache read failed", "err", err)
		}
		for k, v := range cached {
			hits[k] = v
		}
	}

	misses := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if _, ok := hits[a]; !ok {
			misses = append(misses, a)
		}
	}

	if len(misses) > 0 {
		fresh, err := o.geocodeMany(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("retrieving coordinates: %w", err)
		}

		if o.geocodeCache != nil {
			if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
				slog.Warn("geocode cache write failed", "err", err)
			}
		}

		for k, v := range fresh {
			hits[k] = v
		}
	}

	for _, a := range addresses {
		if _, ok := hits[a]; !ok {
			return nil, fmt.Errorf("missing coordinate for %q", a)
		}
	}

	return hits, nil
}

func (o *ORSEstimator) unavailable(origin, destination string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("ORS estimate %q -> %q: %w", origin, destination, err)
	}
	return fmt.Errorf("ORS estimate %q -> %q: %w: %w", origin, destination, domain.ErrEstimatorUnavailable, err)
}
