package cachecoord

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/freshness-server/internal/metrics"
	"github.com/godilite/freshness-server/pkg/cache"
	"go.uber.org/zap"
)

const defaultOpTimeout = 250 * time.Millisecond

// Store is the cache tier. *cache.Cache implements it.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	DelPattern(ctx context.Context, pattern string) (int64, error)
	MGet(ctx context.Context, keys ...string) (map[string][]byte, error)
	MSet(ctx context.Context, entries []cache.Entry) error
	SortedSetAdd(ctx context.Context, key string, ttl time.Duration, members ...cache.ScoredMember) error
	SortedSetReplace(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) error
	SortedSetTopN(ctx context.Context, key string, n int) ([]cache.ScoredMember, error)
}

// Coordinator serves derived views from the cache tier. Every method is
// best-effort: a failing or slow tier reads as a miss and writes become
// no-ops, so callers always fall back to the ledger.
//
// Consistency is eventual and bounded by TTL. A rating write removes the
// location's detail, score, summary and time views, then every nearby:*
// entry, because there is no reverse index from a location to the radius
// searches that contain it. A nearby result read before that delete can
// still carry the old score until its TTL expires.
type Coordinator struct {
	store     Store
	ttls      TTLs
	opTimeout time.Duration
	logger    *zap.Logger
}

type Option func(*Coordinator)

func WithTTLs(ttls TTLs) Option {
	return func(c *Coordinator) { c.ttls = ttls.withDefaults() }
}

// WithOpTimeout bounds each cache call; a timeout counts as unavailable.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// New builds a coordinator. A nil store disables caching entirely.
func New(store Store, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		store:     store,
		ttls:      DefaultTTLs(),
		opTimeout: defaultOpTimeout,
		logger:    logger.Named("cache-coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the expiry band of a view.
func (c *Coordinator) TTL(v View) time.Duration {
	return c.ttls.For(v)
}

func (c *Coordinator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *Coordinator) record(op, result string) {
	metrics.CacheOperations.WithLabelValues(op, result).Inc()
}

func (c *Coordinator) fail(op, key string, err error) {
	c.record(op, "error")
	c.logger.Warn("cache operation failed (fail-open)",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}

// Get decodes key into dest and reports whether it was a hit.
func (c *Coordinator) Get(ctx context.Context, key string, dest any) bool {
	if c.store == nil {
		return false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	err := c.store.Get(opCtx, key, dest)
	switch {
	case err == nil:
		c.record("get", "hit")
		c.logger.Debug("cache hit", zap.String("key", key))
		return true
	case errors.Is(err, cache.ErrMiss):
		c.record("get", "miss")
		c.logger.Debug("cache miss", zap.String("key", key))
	default:
		c.fail("get", key, err)
	}
	return false
}

// Set stores value under key and reports whether the write landed.
func (c *Coordinator) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if c.store == nil {
		return false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.Set(opCtx, key, value, ttl); err != nil {
		c.fail("set", key, err)
		return false
	}
	c.record("set", "ok")
	return true
}

// Del removes keys and returns how many existed.
func (c *Coordinator) Del(ctx context.Context, keys ...string) int64 {
	if c.store == nil || len(keys) == 0 {
		return 0
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	n, err := c.store.Del(opCtx, keys...)
	if err != nil {
		c.fail("del", keys[0], err)
		return 0
	}
	c.record("del", "ok")
	return n
}

// DelPattern removes every key matching a glob.
func (c *Coordinator) DelPattern(ctx context.Context, pattern string) int64 {
	if c.store == nil {
		return 0
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	n, err := c.store.DelPattern(opCtx, pattern)
	if err != nil {
		c.fail("del_pattern", pattern, err)
		return 0
	}
	c.record("del_pattern", "ok")
	return n
}

// GetMany returns the raw payloads of keys that hit.
func (c *Coordinator) GetMany(ctx context.Context, keys []string) map[string][]byte {
	if c.store == nil || len(keys) == 0 {
		return map[string][]byte{}
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	found, err := c.store.MGet(opCtx, keys...)
	if err != nil {
		c.fail("mget", keys[0], err)
		return map[string][]byte{}
	}
	metrics.CacheOperations.WithLabelValues("mget", "hit").Add(float64(len(found)))
	metrics.CacheOperations.WithLabelValues("mget", "miss").Add(float64(len(keys) - len(found)))
	return found
}

// SetMany writes entries in one pipelined round trip.
func (c *Coordinator) SetMany(ctx context.Context, entries []cache.Entry) bool {
	if c.store == nil || len(entries) == 0 {
		return false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.MSet(opCtx, entries); err != nil {
		c.fail("mset", entries[0].Key, err)
		return false
	}
	c.record("mset", "ok")
	return true
}

// RankAdd appends members to a ranking.
func (c *Coordinator) RankAdd(ctx context.Context, key string, ttl time.Duration, members ...cache.ScoredMember) bool {
	if c.store == nil {
		return false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.SortedSetAdd(opCtx, key, ttl, members...); err != nil {
		c.fail("zadd", key, err)
		return false
	}
	c.record("zadd", "ok")
	return true
}

// RankReplace swaps a whole ranking in one transaction.
func (c *Coordinator) RankReplace(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) bool {
	if c.store == nil {
		return false
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.store.SortedSetReplace(opCtx, key, ttl, members); err != nil {
		c.fail("zreplace", key, err)
		return false
	}
	c.record("zreplace", "ok")
	return true
}

// TopN reads the n best entries of a ranking; empty on miss or failure.
func (c *Coordinator) TopN(ctx context.Context, key string, n int) []cache.ScoredMember {
	if c.store == nil {
		return nil
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	top, err := c.store.SortedSetTopN(opCtx, key, n)
	if err != nil {
		c.fail("ztop", key, err)
		return nil
	}
	if len(top) == 0 {
		c.record("ztop", "miss")
	} else {
		c.record("ztop", "hit")
	}
	return top
}

// InvalidateLocation runs after a rating for locationID is appended: the
// location's own views are deleted by key, then all nearby searches by
// pattern.
func (c *Coordinator) InvalidateLocation(ctx context.Context, locationID string) {
	point := c.Del(ctx,
		LocationKey(locationID),
		ScoreKey(locationID),
		SummaryKey(locationID),
		TimeKey(locationID),
	)
	pattern := c.DelPattern(ctx, NearbyPattern)

	metrics.CacheInvalidatedKeys.WithLabelValues("point").Add(float64(point))
	metrics.CacheInvalidatedKeys.WithLabelValues("pattern").Add(float64(pattern))

	c.logger.Debug("invalidated location views",
		zap.String("location_id", locationID),
		zap.Int64("point_keys", point),
		zap.Int64("nearby_keys", pattern))
}
