package cache

import (
	"context"
	"database/sql"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SQLTravelCache is a SQL-backed cache for origin->destination travel estimates.
// Keys are expected to be normalized by the caller.
type SQLTravelCache struct {
	DB *sqlx.DB
}

func NewSQLTravelCache(db *sqlx.DB) *SQLTravelCache {
	return &SQLTravelCache{DB: db}
}

type travelRow struct {
	DistanceMeters  int `db:"distance_meters"`
	DurationSeconds int `db:"duration_seconds"`
}

func (s *SQLTravelCache) GetTravel(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.TravelEstimate, _ bool, err error) {
	defer obs.Time(ctx, "travel.cache.sql.Get")(&err)

	if s.DB == nil {
		return ports.TravelEstimate{}, false, errors.New("travel cache: db is nil")
	}

	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return ports.TravelEstimate{}, false, errors.New("get travel cache: origin and destination must not be empty")
	}

	var row travelRow
	err = s.DB.GetContext(ctx, &row, s.DB.Rebind(`
	SELECT distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = ? AND destination = ?
	`), origin, destination)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.TravelEstimate{}, false, nil
	}
	if err != nil {
		return ports.TravelEstimate{}, false, fmt.Errorf("get travel cache: %w", err)
	}

	return ports.TravelEstimate{
		DistanceMeters:  row.DistanceMeters,
		DurationSeconds: row.DurationSeconds,
	}, true, nil
}

func (s *SQLTravelCache) PutTravel(
	ctx context.Context,
	origin string,
	destination string,
	est ports.TravelEstimate,
) error {
	if s.DB == nil {
		return errors.New("travel cache: db is nil")
	}

	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return errors.New("insert travel cache: origin and destination must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = excluded.distance_meters,
		duration_seconds = excluded.duration_seconds
	`), origin, destination, est.DistanceMeters, est.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert travel cache %q -> %q: %w", origin, destination, err)
	}

	return nil
}
