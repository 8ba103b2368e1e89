package grpc

import (
	"context"

	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
)

// RatingService is the service surface exposed over gRPC.
type RatingService interface {
	SubmitRating(ctx context.Context, req service.SubmitRatingRequest) (service.SubmitRatingResult, error)
	RatingSummary(ctx context.Context, locationID string) (service.RatingSummary, error)
	LocationDetail(ctx context.Context, locationID string) (service.LocationDetail, error)
	LocationDetails(ctx context.Context, ids []string) ([]service.LocationDetail, error)
	LocationScore(ctx context.Context, locationID string) (service.ScoreSnapshot, error)
	LocationStats(ctx context.Context, locationID string) (service.LocationStats, error)
	TimeAnalysis(ctx context.Context, locationID string) (service.TimeAnalysisView, error)
	NearbyLocations(ctx context.Context, q service.NearbyQuery) ([]service.NearbyResult, error)
	SearchLocations(ctx context.Context, query string) ([]models.Location, error)
	TopLocations(ctx context.Context, n int) ([]service.RankedLocation, error)
	UserPreferences(ctx context.Context, userID string) (map[string]any, bool, error)
	SaveUserPreferences(ctx context.Context, userID string, prefs map[string]any) (bool, error)
}
