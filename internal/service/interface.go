package service

import (
	"context"
	"time"

	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/pkg/cache"
)

// RatingLedger is the append-only store of ratings and the location
// lookups built on it.
type RatingLedger interface {
	Append(ctx context.Context, locationID string, score int, submitterID *string) (models.Rating, error)
	Query(ctx context.Context, locationID string, limit int) ([]models.Rating, error)
	QuerySince(ctx context.Context, locationID string, since time.Time) ([]models.Rating, error)
	Totals(ctx context.Context, locationID string) (models.LocationTotals, error)
	GetLocation(ctx context.Context, id string) (models.Location, error)
	NearbyLocations(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]models.NearbyLocation, error)
	SearchLocations(ctx context.Context, query string, limit int) ([]models.Location, error)
	PopularLocations(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error)
}

// ViewCache is the cache coordinator as seen by the services.
type ViewCache interface {
	cachecoord.ReadThrough
	TTL(v cachecoord.View) time.Duration
	GetMany(ctx context.Context, keys []string) map[string][]byte
	SetMany(ctx context.Context, entries []cache.Entry) bool
	TopN(ctx context.Context, key string, n int) []cache.ScoredMember
	InvalidateLocation(ctx context.Context, locationID string)
}
