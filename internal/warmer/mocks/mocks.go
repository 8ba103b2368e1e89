package mocks

import (
	"context"
	"time"

	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
	"github.com/godilite/freshness-server/pkg/cache"
)

// MockLedger is a function-field implementation of warmer.Ledger. Unset
// functions return no locations.
type MockLedger struct {
	PopularLocationsFunc       func(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error)
	RecentlyRatedLocationsFunc func(ctx context.Context, since time.Time, limit int) ([]string, error)
	ActiveLocationsFunc        func(ctx context.Context, since time.Time, minRatings, limit int) ([]models.LocationActivity, error)
}

func (m *MockLedger) PopularLocations(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error) {
	if m.PopularLocationsFunc != nil {
		return m.PopularLocationsFunc(ctx, since, limit)
	}
	return nil, nil
}

func (m *MockLedger) RecentlyRatedLocations(ctx context.Context, since time.Time, limit int) ([]string, error) {
	if m.RecentlyRatedLocationsFunc != nil {
		return m.RecentlyRatedLocationsFunc(ctx, since, limit)
	}
	return nil, nil
}

func (m *MockLedger) ActiveLocations(ctx context.Context, since time.Time, minRatings, limit int) ([]models.LocationActivity, error) {
	if m.ActiveLocationsFunc != nil {
		return m.ActiveLocationsFunc(ctx, since, minRatings, limit)
	}
	return nil, nil
}

// MockViews is a function-field implementation of warmer.Views. Unset
// functions report every id as written.
type MockViews struct {
	RefreshLocationDetailsFunc func(ctx context.Context, ids []string) (int, error)
	RefreshNearbyFunc          func(ctx context.Context, q service.NearbyQuery) (int, error)
	RefreshLocationStatsFunc   func(ctx context.Context, ids []string) (int, error)
}

func (m *MockViews) RefreshLocationDetails(ctx context.Context, ids []string) (int, error) {
	if m.RefreshLocationDetailsFunc != nil {
		return m.RefreshLocationDetailsFunc(ctx, ids)
	}
	return len(ids), nil
}

func (m *MockViews) RefreshNearby(ctx context.Context, q service.NearbyQuery) (int, error) {
	if m.RefreshNearbyFunc != nil {
		return m.RefreshNearbyFunc(ctx, q)
	}
	return 0, nil
}

func (m *MockViews) RefreshLocationStats(ctx context.Context, ids []string) (int, error) {
	if m.RefreshLocationStatsFunc != nil {
		return m.RefreshLocationStatsFunc(ctx, ids)
	}
	return len(ids), nil
}

// MockRanker is a function-field implementation of warmer.Ranker.
type MockRanker struct {
	RankReplaceFunc func(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) bool
}

func (m *MockRanker) TTL(v cachecoord.View) time.Duration {
	return cachecoord.DefaultTTLs().For(v)
}

func (m *MockRanker) RankReplace(ctx context.Context, key string, ttl time.Duration, members []cache.ScoredMember) bool {
	if m.RankReplaceFunc != nil {
		return m.RankReplaceFunc(ctx, key, ttl, members)
	}
	return true
}
