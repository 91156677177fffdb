package cache

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/ports"
	"log/slog"
)

// TieredTravelCache reads the fast tier first and falls back to the slow
// tier, copying slow hits forward. Writes go to both tiers.
type TieredTravelCache struct {
	Fast ports.TravelCache
	Slow ports.TravelCache
}

func (t *TieredTravelCache) GetTravel(
	ctx context.Context,
	origin string,
	destination string,
) (ports.TravelEstimate, bool, error) {
	est, ok, err := t.Fast.GetTravel(ctx, origin, destination)
	if err != nil {
		slog.Warn("fast travel cache read failed", "err", err)
	} else if ok {
		return est, true, nil
	}

	est, ok, err = t.Slow.GetTravel(ctx, origin, destination)
	if err != nil || !ok {
		return est, ok, err
	}

	if err := t.Fast.PutTravel(ctx, origin, destination, est); err != nil {
		slog.Warn("fast travel cache backfill failed", "err", err)
	}
	return est, true, nil
}

func (t *TieredTravelCache) PutTravel(
	ctx context.Context,
	origin string,
	destination string,
	est ports.TravelEstimate,
) error {
	if err := t.Fast.PutTravel(ctx, origin, destination, est); err != nil {
		slog.Warn("fast travel cache write failed", "err", err)
	}
	return t.Slow.PutTravel(ctx, origin, destination, est)
}

// TieredGeocodeCache is the geocode counterpart of TieredTravelCache.
type TieredGeocodeCache struct {
	Fast ports.GeocodeCache
	Slow ports.GeocodeCache
}

func (t *TieredGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	out, err := t.Fast.GetMany(ctx, addresses)
	if err != nil {
		slog.Warn("fast geocode cache read failed", "err", err)
		out = map[string]domain.Coordinates{}
	}

	var misses []string
	for _, a := range addresses {
		if _, ok := out[a]; !ok {
			misses = append(misses, a)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	slow, err := t.Slow.GetMany(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(slow) > 0 {
		if err := t.Fast.PutMany(ctx, slow); err != nil {
			slog.Warn("fast geocode cache backfill failed", "err", err)
		}
	}
	for k, v := range slow {
		out[k] = v
	}
	return out, nil
}

func (t *TieredGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if err := t.Fast.PutMany(ctx, results); err != nil {
		slog.Warn("fast geocode cache write failed", "err", err)
	}
	return t.Slow.PutMany(ctx, results)
}
