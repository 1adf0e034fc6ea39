// Package cache keeps a Redis copy of each user's stock set so repeated
// recommendation requests skip the stock query.
//
// Redis is best effort: every failure is logged and the call falls through
// to PostgreSQL, so a Redis outage never fails a request. Reads and writes go
// through a circuit breaker; after repeated failures Redis is skipped until
// the breaker half-opens again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/metrics"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/recommendation"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

const keyPrefix = "pantry:stock:"

const (
	// breakerFailureThreshold consecutive Redis failures open the breaker.
	breakerFailureThreshold = 5
	// breakerOpenTimeout is how long Redis is skipped before a trial request.
	breakerOpenTimeout = 30 * time.Second
	// generationTTL keeps a user's generation counter alive long after any
	// in-flight lookup that read it has finished.
	generationTTL = 24 * time.Hour
)

// storeIfCurrent writes the stock set only while the user's generation is
// still the one read before the source query. A missing counter reads as "0".
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// StockInvalidator drops cached stock sets after stock changes.
type StockInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...int64)
}

// Noop is the StockInvalidator used when Redis is not configured.
type Noop struct{}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, ...int64) {}

// StockCache decorates a RecommendationSource with Redis caching of stock sets.
// Recipe ingredient lookups pass straight through.
//
// Every user has a generation counter next to the cached set. Invalidate bumps
// it, and a lookup that missed stores its result only if the counter has not
// moved since before it queried PostgreSQL. A lookup racing a stock change
// therefore never caches the set it read before the change.
type StockCache struct {
	source  repositories.RecommendationSource
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewStockCache wraps source. ttl bounds staleness if an invalidation is lost.
func NewStockCache(source repositories.RecommendationSource, client *redis.Client, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *StockCache {
	logger = logger.Named("stock-cache")
	return &StockCache{
		source:  source,
		client:  client,
		breaker: newBreaker(logger),
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "redis-stock-cache",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Redis circuit breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// breakerRejected reports whether err came from the breaker rather than Redis.
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Key returns the Redis key holding a user's stock set. The braces keep it in
// the same cluster slot as GenerationKey.
func Key(userID int64) string {
	return fmt.Sprintf("%s{%d}", keyPrefix, userID)
}

// GenerationKey returns the Redis key holding a user's invalidation counter.
func GenerationKey(userID int64) string {
	return fmt.Sprintf("%s{%d}:gen", keyPrefix, userID)
}

// cached is one read of a user's keys.
type cached struct {
	payload    []byte // nil when the set is not cached
	generation string
}

func (c *StockCache) read(ctx context.Context, userID int64) (cached, error) {
	v, err := c.breaker.Execute(func() (any, error) {
		return c.client.MGet(ctx, Key(userID), GenerationKey(userID)).Result()
	})
	if err != nil {
		return cached{}, err
	}

	vals := v.([]any)
	out := cached{generation: "0"}
	if s, ok := vals[0].(string); ok {
		out.payload = []byte(s)
	}
	if g, ok := vals[1].(string); ok {
		out.generation = g
	}
	return out, nil
}

// GetActiveStockIngredientIDs serves the stock set from Redis, loading and
// storing it on a miss.
func (c *StockCache) GetActiveStockIngredientIDs(ctx context.Context, userID int64) (recommendation.StockSet, error) {
	entry, err := c.read(ctx, userID)
	// Without a generation a later write could not be checked, so it is skipped.
	canStore := err == nil

	switch {
	case err != nil:
		if !breakerRejected(err) {
			c.metrics.StockCacheError("get")
			c.logger.Warn("Failed to read cached stock set",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	case entry.payload != nil:
		var ids []int64
		jsonErr := json.Unmarshal(entry.payload, &ids)
		if jsonErr == nil {
			c.metrics.StockCacheHit()
			return recommendation.NewStockSet(ids...), nil
		}
		c.logger.Warn("Discarding unreadable cached stock set",
			zap.Int64("user_id", userID),
			zap.Error(jsonErr))
	}

	c.metrics.StockCacheMiss()

	stock, err := c.source.GetActiveStockIngredientIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canStore {
		return stock, nil
	}

	payload, err := json.Marshal(stock.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to encode stock set: %w", err)
	}
	_, err = c.breaker.Execute(func() (any, error) {
		return storeIfCurrent.Run(ctx, c.client,
			[]string{Key(userID), GenerationKey(userID)},
			entry.generation, payload, c.ttl.Milliseconds(),
		).Int()
	})
	if err != nil && !breakerRejected(err) {
		c.metrics.StockCacheError("set")
		c.logger.Warn("Failed to cache stock set",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}

	return stock, nil
}

// GetRecipeIngredients delegates to the wrapped source.
func (c *StockCache) GetRecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]models.RecipeIngredient, error) {
	return c.source.GetRecipeIngredients(ctx, recipeIDs)
}

// Invalidate bumps the generation of the given users and deletes their
// cached sets in one transaction. It bypasses the breaker so a recovering
// Redis never keeps a stale set longer than needed.
func (c *StockCache) Invalidate(ctx context.Context, userIDs ...int64) {
	if len(userIDs) == 0 {
		return
	}

	seen := make(map[int64]struct{}, len(userIDs))
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			pipe.Incr(ctx, GenerationKey(id))
			pipe.Expire(ctx, GenerationKey(id), generationTTL)
			pipe.Del(ctx, Key(id))
		}
		return nil
	})
	if err != nil {
		c.metrics.StockCacheError("del")
		c.logger.Warn("Failed to invalidate cached stock sets",
			zap.Int("users", len(seen)),
			zap.Error(err))
	}
}

var (
	_ repositories.RecommendationSource = (*StockCache)(nil)
	_ StockInvalidator                  = (*StockCache)(nil)
	_ StockInvalidator                  = Noop{}
)
