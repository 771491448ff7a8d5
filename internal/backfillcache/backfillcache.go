// Package backfillcache adds an optional redis-backed cache in front
// of a collector.KlineFetcher, keyed by symbol:resolution, with a
// short TTL. It is strictly additive over ambient backfill fetching
// (SPEC_FULL.md §11) — not portfolio-state persistence, which stays
// out of scope.
package backfillcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pavank-hl/agentc-trading-go/internal/collector"
)

// DefaultTTL is how long a cached kline history stays fresh. Backfill
// windows span hours, so a TTL of a fraction of one candle's period
// keeps the cache useful without serving stale history after a
// restart long after the market moved.
const DefaultTTL = 30 * time.Second

// Cache wraps a collector.KlineFetcher with a redis cache. A nil
// client disables caching entirely — FetchKlines falls straight
// through to the wrapped fetcher, so callers can construct a Cache
// unconditionally and let the absence of REDIS_ADDR turn it into a
// no-op.
type Cache struct {
	client  *redis.Client
	fetcher collector.KlineFetcher
	ttl     time.Duration
	logger  zerolog.Logger
}

// New wraps fetcher with client. client may be nil to disable caching.
func New(client *redis.Client, fetcher collector.KlineFetcher, logger zerolog.Logger) *Cache {
	return &Cache{
		client:  client,
		fetcher: fetcher,
		ttl:     DefaultTTL,
		logger:  logger.With().Str("component", "backfillcache").Logger(),
	}
}

// FetchKlines satisfies collector.KlineFetcher. On a cache hit it
// returns the cached history without calling the wrapped fetcher; on
// a miss (or when caching is disabled) it fetches live and, on
// success, populates the cache for subsequent callers.
func (c *Cache) FetchKlines(ctx context.Context, symbol, resolution string, from, to int64) (collector.KlineHistory, error) {
	if c.client == nil {
		return c.fetcher.FetchKlines(ctx, symbol, resolution, from, to)
	}

	key := cacheKey(symbol, resolution)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var hist collector.KlineHistory
		if jsonErr := json.Unmarshal(raw, &hist); jsonErr == nil {
			return hist, nil
		}
	}

	hist, err := c.fetcher.FetchKlines(ctx, symbol, resolution, from, to)
	if err != nil {
		return collector.KlineHistory{}, err
	}

	if raw, err := json.Marshal(hist); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to populate backfill cache")
		}
	}

	return hist, nil
}

func cacheKey(symbol, resolution string) string {
	return fmt.Sprintf("backfill:%s:%s", symbol, resolution)
}
