package cache

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/db/dbtest"
	"delivery-sequencing-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, time.Hour), mr
}

func TestSQLTravelCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewSQLTravelCache(dbtest.Open(t))

	_, ok, err := c.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutTravel(ctx, "A", "B", ports.TravelEstimate{DistanceMeters: 100, DurationSeconds: 30}))
	require.NoError(t, c.PutTravel(ctx, "A", "B", ports.TravelEstimate{DistanceMeters: 120, DurationSeconds: 40}))

	got, ok, err := c.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ports.TravelEstimate{DistanceMeters: 120, DurationSeconds: 40}, got)

	_, ok, err = c.GetTravel(ctx, "B", "A")
	require.NoError(t, err)
	assert.False(t, ok, "estimates are directional")
}

func TestSQLTravelCache_RejectsEmptyKeys(t *testing.T) {
	c := NewSQLTravelCache(dbtest.Open(t))
	assert.Error(t, c.PutTravel(context.Background(), "", "B", ports.TravelEstimate{}))
}

func TestSQLGeocodeCache_GetMany(t *testing.T) {
	ctx := context.Background()
	c := NewSQLGeocodeCache(dbtest.Open(t))

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{
		"1 Main St": {Lon: 1, Lat: 2},
		"2 Oak Ave": {Lon: 3, Lat: 4},
	}))

	got, err := c.GetMany(ctx, []string{"1 Main St", "1 Main St", "9 Elm", " "})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"1 Main St": {Lon: 1, Lat: 2}}, got)
}

func TestRedisCache_Travel(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	_, ok, err := c.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.False(t, ok)

	want := ports.TravelEstimate{DistanceMeters: 900, DurationSeconds: 120}
	require.NoError(t, c.PutTravel(ctx, "A", "B", want))

	got, ok, err := c.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")
}

func TestRedisCache_Geocode(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	require.NoError(t, c.PutMany(ctx, map[string]domain.Coordinates{"1 Main St": {Lon: 1, Lat: 2}}))

	got, err := c.GetMany(ctx, []string{"1 Main St", "2 Oak Ave"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Coordinates{"1 Main St": {Lon: 1, Lat: 2}}, got)
}

func TestTieredTravelCache_BackfillsFastTier(t *testing.T) {
	ctx := context.Background()
	fast, _ := newRedisCache(t)
	slow := NewSQLTravelCache(dbtest.Open(t))
	tiered := &TieredTravelCache{Fast: fast, Slow: slow}

	want := ports.TravelEstimate{DistanceMeters: 10, DurationSeconds: 5}
	require.NoError(t, slow.PutTravel(ctx, "A", "B", want))

	got, ok, err := tiered.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	got, ok, err = fast.GetTravel(ctx, "A", "B")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTieredTravelCache_WritesBothTiers(t *testing.T) {
	ctx := context.Background()
	fast, _ := newRedisCache(t)
	slow := NewSQLTravelCache(dbtest.Open(t))
	tiered := &TieredTravelCache{Fast: fast, Slow: slow}

	require.NoError(t, tiered.PutTravel(ctx, "A", "B", ports.TravelEstimate{DurationSeconds: 7}))

	_, ok, _ := fast.GetTravel(ctx, "A", "B")
	assert.True(t, ok)
	_, ok, _ = slow.GetTravel(ctx, "A", "B")
	assert.True(t, ok)
}

func TestTieredGeocodeCache_MergesTiers(t *testing.T) {
	ctx := context.Background()
	fast, _ := newRedisCache(t)
	slow := NewSQLGeocodeCache(dbtest.Open(t))
	tiered := &TieredGeocodeCache{Fast: fast, Slow: slow}

	require.NoError(t, fast.PutMany(ctx, map[string]domain.Coordinates{"A": {Lon: 1}}))
	require.NoError(t, slow.PutMany(ctx, map[string]domain.Coordinates{"B": {Lon: 2}}))

	got, err := tiered.GetMany(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	back, err := fast.GetMany(ctx, []string{"B"})
	require.NoError(t, err)
	assert.Contains(t, back, "B")
}
