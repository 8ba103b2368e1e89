package cachecoord

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds a de-duplicated fetch, which no longer follows
// any single caller's context.
const sharedFetchTimeout = 10 * time.Second

type FetchFunc[T any] func(ctx context.Context) (T, error)

// ReadThrough is the subset of Coordinator used by FindAndCache.
type ReadThrough interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
}

// FindAndCache serves key from the cache tier, or computes it with fn and
// stores the result. Concurrent misses on the same key share one fetch,
// which runs detached from the callers' cancellation: a caller that gives up
// returns ctx.Err() while the others still get the value. Errors from fn are
// returned and never cached.
func FindAndCache[T any](
	ctx context.Context,
	c ReadThrough,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	fn FetchFunc[T],
) (T, error) {
	var zero T

	var cached T
	if c.Get(ctx, key, &cached) {
		return cached, nil
	}

	ch := sf.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		value, err := fn(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.Set(fetchCtx, key, value, ttl)
		return value, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}

	value, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	return value, nil
}

// Refresh recomputes key with fn and overwrites the cached value.
func Refresh[T any](ctx context.Context, c ReadThrough, key string, ttl time.Duration, fn FetchFunc[T]) (T, error) {
	value, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, key, value, ttl)
	return value, nil
}

// DecodeMany decodes raw payloads returned by GetMany. Payloads that fail to
// decode are dropped and read as misses.
func DecodeMany[T any](raw map[string][]byte) map[string]T {
	out := make(map[string]T, len(raw))
	for k, b := range raw {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			continue
		}
		out[k] = v
	}
	return out
}
