package mocks

import (
	"context"
	"errors"

	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
)

// MockRatingService is a mock implementation of the RatingService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockRatingService struct {
	SubmitRatingFunc        func(ctx context.Context, req service.SubmitRatingRequest) (service.SubmitRatingResult, error)
	RatingSummaryFunc       func(ctx context.Context, locationID string) (service.RatingSummary, error)
	LocationDetailFunc      func(ctx context.Context, locationID string) (service.LocationDetail, error)
	LocationDetailsFunc     func(ctx context.Context, ids []string) ([]service.LocationDetail, error)
	LocationScoreFunc       func(ctx context.Context, locationID string) (service.ScoreSnapshot, error)
	LocationStatsFunc       func(ctx context.Context, locationID string) (service.LocationStats, error)
	TimeAnalysisFunc        func(ctx context.Context, locationID string) (service.TimeAnalysisView, error)
	NearbyLocationsFunc     func(ctx context.Context, q service.NearbyQuery) ([]service.NearbyResult, error)
	SearchLocationsFunc     func(ctx context.Context, query string) ([]models.Location, error)
	TopLocationsFunc        func(ctx context.Context, n int) ([]service.RankedLocation, error)
	UserPreferencesFunc     func(ctx context.Context, userID string) (map[string]any, bool, error)
	SaveUserPreferencesFunc func(ctx context.Context, userID string, prefs map[string]any) (bool, error)
}

func (m *MockRatingService) SubmitRating(ctx context.Context, req service.SubmitRatingRequest) (service.SubmitRatingResult, error) {
	if m.SubmitRatingFunc != nil {
		return m.SubmitRatingFunc(ctx, req)
	}
	return service.SubmitRatingResult{}, errors.New("SubmitRatingFunc not implemented")
}

func (m *MockRatingService) RatingSummary(ctx context.Context, locationID string) (service.RatingSummary, error) {
	if m.RatingSummaryFunc != nil {
		return m.RatingSummaryFunc(ctx, locationID)
	}
	return service.RatingSummary{}, errors.New("RatingSummaryFunc not implemented")
}

func (m *MockRatingService) LocationDetail(ctx context.Context, locationID string) (service.LocationDetail, error) {
	if m.LocationDetailFunc != nil {
		return m.LocationDetailFunc(ctx, locationID)
	}
	return service.LocationDetail{}, errors.New("LocationDetailFunc not implemented")
}

func (m *MockRatingService) LocationDetails(ctx context.Context, ids []string) ([]service.LocationDetail, error) {
	if m.LocationDetailsFunc != nil {
		return m.LocationDetailsFunc(ctx, ids)
	}
	return nil, errors.New("LocationDetailsFunc not implemented")
}

func (m *MockRatingService) LocationScore(ctx context.Context, locationID string) (service.ScoreSnapshot, error) {
	if m.LocationScoreFunc != nil {
		return m.LocationScoreFunc(ctx, locationID)
	}
	return service.ScoreSnapshot{}, errors.New("LocationScoreFunc not implemented")
}

func (m *MockRatingService) LocationStats(ctx context.Context, locationID string) (service.LocationStats, error) {
	if m.LocationStatsFunc != nil {
		return m.LocationStatsFunc(ctx, locationID)
	}
	return service.LocationStats{}, errors.New("LocationStatsFunc not implemented")
}

func (m *MockRatingService) TimeAnalysis(ctx context.Context, locationID string) (service.TimeAnalysisView, error) {
	if m.TimeAnalysisFunc != nil {
		return m.TimeAnalysisFunc(ctx, locationID)
	}
	return service.TimeAnalysisView{}, errors.New("TimeAnalysisFunc not implemented")
}

func (m *MockRatingService) NearbyLocations(ctx context.Context, q service.NearbyQuery) ([]service.NearbyResult, error) {
	if m.NearbyLocationsFunc != nil {
		return m.NearbyLocationsFunc(ctx, q)
	}
	return nil, errors.New("NearbyLocationsFunc not implemented")
}

func (m *MockRatingService) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	if m.SearchLocationsFunc != nil {
		return m.SearchLocationsFunc(ctx, query)
	}
	return nil, errors.New("SearchLocationsFunc not implemented")
}

func (m *MockRatingService) TopLocations(ctx context.Context, n int) ([]service.RankedLocation, error) {
	if m.TopLocationsFunc != nil {
		return m.TopLocationsFunc(ctx, n)
	}
	return nil, errors.New("TopLocationsFunc not implemented")
}

func (m *MockRatingService) UserPreferences(ctx context.Context, userID string) (map[string]any, bool, error) {
	if m.UserPreferencesFunc != nil {
		return m.UserPreferencesFunc(ctx, userID)
	}
	return nil, false, errors.New("UserPreferencesFunc not implemented")
}

func (m *MockRatingService) SaveUserPreferences(ctx context.Context, userID string, prefs map[string]any) (bool, error) {
	if m.SaveUserPreferencesFunc != nil {
		return m.SaveUserPreferencesFunc(ctx, userID, prefs)
	}
	return false, errors.New("SaveUserPreferencesFunc not implemented")
}
