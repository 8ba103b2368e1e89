package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/freshness-server/pkg/cache"
)

// ErrUnavailable is returned by FailingStore for every call.
var ErrUnavailable = errors.New("cache tier unavailable")

// MockStore is a function-field implementation of cachecoord.Store.
// Unset functions behave like an empty, healthy cache.
type MockStore struct {
	GetFunc              func(ctx context.Context, key string, dest any) error
	SetFunc              func(ctx context.Context, key string, value any, expiration time.Duration) error
	DelFunc              func(ctx context.Context, keys ...string) (int64, error)
	DelPatternFunc       func(ctx context.Context, pattern string) (int64, error)
	MGetFunc             func(ctx context.Context, keys ...string) (map[string][]byte, error)
	MSetFunc             func(ctx context.Context, entries []cache.Entry) error
	SortedSetAddFunc     func(ctx context.Context, key string, ttl time.Duration, members ...cache.ScoredMember) error
	SortedSetReplaceFunc func(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) error
	SortedSetTopNFunc    func(ctx context.Context, key string, n int) ([]cache.ScoredMember, error)
}

func (m *MockStore) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return cache.ErrMiss
}

func (m *MockStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, keys...)
	}
	return 0, nil
}

func (m *MockStore) DelPattern(ctx context.Context, pattern string) (int64, error) {
	if m.DelPatternFunc != nil {
		return m.DelPatternFunc(ctx, pattern)
	}
	return 0, nil
}

func (m *MockStore) MGet(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if m.MGetFunc != nil {
		return m.MGetFunc(ctx, keys...)
	}
	return map[string][]byte{}, nil
}

func (m *MockStore) MSet(ctx context.Context, entries []cache.Entry) error {
	if m.MSetFunc != nil {
		return m.MSetFunc(ctx, entries)
	}
	return nil
}

func (m *MockStore) SortedSetAdd(ctx context.Context, key string, ttl time.Duration, members ...cache.ScoredMember) error {
	if m.SortedSetAddFunc != nil {
		return m.SortedSetAddFunc(ctx, key, ttl, members...)
	}
	return nil
}

func (m *MockStore) SortedSetReplace(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) error {
	if m.SortedSetReplaceFunc != nil {
		return m.SortedSetReplaceFunc(ctx, key, ttl, members)
	}
	return nil
}

func (m *MockStore) SortedSetTopN(ctx context.Context, key string, n int) ([]cache.ScoredMember, error) {
	if m.SortedSetTopNFunc != nil {
		return m.SortedSetTopNFunc(ctx, key, n)
	}
	return nil, nil
}

// FailingStore returns a MockStore whose every call fails.
func FailingStore() *MockStore {
	return &MockStore{
		GetFunc: func(context.Context, string, any) error { return ErrUnavailable },
		SetFunc: func(context.Context, string, any, time.Duration) error { return ErrUnavailable },
		DelFunc: func(context.Context, ...string) (int64, error) { return 0, ErrUnavailable },
		DelPatternFunc: func(context.Context, string) (int64, error) {
			return 0, ErrUnavailable
		},
		MGetFunc: func(context.Context, ...string) (map[string][]byte, error) { return nil, ErrUnavailable },
		MSetFunc: func(context.Context, []cache.Entry) error { return ErrUnavailable },
		SortedSetAddFunc: func(context.Context, string, time.Duration, ...cache.ScoredMember) error {
			return ErrUnavailable
		},
		SortedSetReplaceFunc: func(context.Context, string, time.Duration, []cache.ScoredMember) error {
			return ErrUnavailable
		},
		SortedSetTopNFunc: func(context.Context, string, int) ([]cache.ScoredMember, error) {
			return nil, ErrUnavailable
		},
	}
}
