package cache

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 24 * time.Hour

// RedisCache keeps travel estimates and coordinates in Redis with a TTL.
// It implements both ports.TravelCache and ports.GeocodeCache.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "seq:"}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (c *RedisCache) travelKey(origin, destination string) string {
	return c.prefix + "travel:" + origin + "|" + destination
}

func (c *RedisCache) geocodeKey(address string) string {
	return c.prefix + "geo:" + address
}

func (c *RedisCache) GetTravel(
	ctx context.Context,
	origin string,
	destination string,
) (_ ports.TravelEstimate, _ bool, err error) {
	defer obs.Time(ctx, "travel.cache.redis.Get")(&err)

	raw, err := c.rdb.Get(ctx, c.travelKey(origin, destination)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.TravelEstimate{}, false, nil
	}
	if err != nil {
		return ports.TravelEstimate{}, false, fmt.Errorf("get travel cache: %w", err)
	}

	var est ports.TravelEstimate
	if err := json.Unmarshal(raw, &est); err != nil {
		return ports.TravelEstimate{}, false, fmt.Errorf("decode travel cache entry: %w", err)
	}
	return est, true, nil
}

func (c *RedisCache) PutTravel(ctx context.Context, origin, destination string, est ports.TravelEstimate) error {
	raw, err := json.Marshal(est)
	if err != nil {
		return fmt.Errorf("encode travel cache entry: %w", err)
	}

	if err := c.rdb.Set(ctx, c.travelKey(origin, destination), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put travel cache: %w", err)
	}
	return nil
}

func (c *RedisCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, len(uniq))
	for i, a := range uniq {
		keys[i] = c.geocodeKey(a)
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}

		var coord domain.Coordinates
		if err := json.Unmarshal([]byte(s), &coord); err != nil {
			return nil, fmt.Errorf("decode geocode cache entry %q: %w", uniq[i], err)
		}
		out[uniq[i]] = coord
	}

	return out, nil
}

func (c *RedisCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if len(results) == 0 {
		return nil
	}

	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for addr, coord := range results {
			raw, err := json.Marshal(coord)
			if err != nil {
				return fmt.Errorf("encode geocode cache entry %q: %w", addr, err)
			}
			p.Set(ctx, c.geocodeKey(addr), raw, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put geocode cache: %w", err)
	}
	return nil
}
