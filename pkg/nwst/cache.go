package nwst

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedAPI keeps the route, variant and stop lists in redis. ETA lists always go to the upstream.
type CachedAPI struct {
	API
	Cache     *cache.Cache[string]
	KeyPrefix string
	Logger    zerolog.Logger
}

func NewCachedAPI(api API, client *redis.Client, expiration time.Duration, keyPrefix string, logger zerolog.Logger) *CachedAPI {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &CachedAPI{
		API:       api,
		Cache:     cache.New[string](redisStore),
		KeyPrefix: keyPrefix,
		Logger:    logger,
	}
}

func (c *CachedAPI) GetRouteList(ctx context.Context) ([]Route, error) {
	return cachedLookup(ctx, c, "routes", func() ([]Route, error) {
		return c.API.GetRouteList(ctx)
	})
}

func (c *CachedAPI) GetVariantList(ctx context.Context, routeID string) ([]Variant, error) {
	return cachedLookup(ctx, c, fmt.Sprintf("variants:%s", routeID), func() ([]Variant, error) {
		return c.API.GetVariantList(ctx, routeID)
	})
}

func (c *CachedAPI) GetStopList(ctx context.Context, company string, rdv Rdv, bound Bound) ([]RouteStop, error) {
	return cachedLookup(ctx, c, fmt.Sprintf("stops:%s:%s:%s", company, rdv, bound), func() ([]RouteStop, error) {
		return c.API.GetStopList(ctx, company, rdv, bound)
	})
}

func cachedLookup[T any](ctx context.Context, c *CachedAPI, key string, fetch func() (T, error)) (T, error) {
	cacheKey := fmt.Sprintf("%s:%s", c.KeyPrefix, key)

	cachedValue, err := c.Cache.Get(ctx, cacheKey)
	if err == nil {
		var value T
		if err := json.Unmarshal([]byte(cachedValue), &value); err == nil {
			c.Logger.Debug().Str("key", cacheKey).Msg("Lookup cache hit")
			return value, nil
		}
		c.Logger.Warn().Str("key", cacheKey).Msg("Discarding unreadable cache entry")
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}

	valueJSON, err := json.Marshal(value)
	if err == nil {
		if err := c.Cache.Set(ctx, cacheKey, string(valueJSON)); err != nil {
			c.Logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to write lookup cache")
		}
	}

	return value, nil
}
