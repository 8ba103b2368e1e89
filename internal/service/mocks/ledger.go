package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/freshness-server/internal/repository/models"
)

// MockRatingLedger is a mock implementation of the RatingLedger interface
// for testing the service layer. It uses function-based mocking for flexibility.
type MockRatingLedger struct {
	AppendFunc           func(ctx context.Context, locationID string, score int, submitterID *string) (models.Rating, error)
	QueryFunc            func(ctx context.Context, locationID string, limit int) ([]models.Rating, error)
	QuerySinceFunc       func(ctx context.Context, locationID string, since time.Time) ([]models.Rating, error)
	TotalsFunc           func(ctx context.Context, locationID string) (models.LocationTotals, error)
	GetLocationFunc      func(ctx context.Context, id string) (models.Location, error)
	NearbyLocationsFunc  func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]models.NearbyLocation, error)
	SearchLocationsFunc  func(ctx context.Context, query string, limit int) ([]models.Location, error)
	PopularLocationsFunc func(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error)
}

func (m *MockRatingLedger) Append(ctx context.Context, locationID string, score int, submitterID *string) (models.Rating, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, locationID, score, submitterID)
	}
	return models.Rating{}, errors.New("AppendFunc not implemented")
}

func (m *MockRatingLedger) Query(ctx context.Context, locationID string, limit int) ([]models.Rating, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, locationID, limit)
	}
	return nil, errors.New("QueryFunc not implemented")
}

func (m *MockRatingLedger) QuerySince(ctx context.Context, locationID string, since time.Time) ([]models.Rating, error) {
	if m.QuerySinceFunc != nil {
		return m.QuerySinceFunc(ctx, locationID, since)
	}
	return nil, errors.New("QuerySinceFunc not implemented")
}

func (m *MockRatingLedger) Totals(ctx context.Context, locationID string) (models.LocationTotals, error) {
	if m.TotalsFunc != nil {
		return m.TotalsFunc(ctx, locationID)
	}
	return models.LocationTotals{}, errors.New("TotalsFunc not implemented")
}

func (m *MockRatingLedger) GetLocation(ctx context.Context, id string) (models.Location, error) {
	if m.GetLocationFunc != nil {
		return m.GetLocationFunc(ctx, id)
	}
	return models.Location{}, errors.New("GetLocationFunc not implemented")
}

func (m *MockRatingLedger) NearbyLocations(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]models.NearbyLocation, error) {
	if m.NearbyLocationsFunc != nil {
		return m.NearbyLocationsFunc(ctx, lat, lng, radiusMeters, limit)
	}
	return nil, errors.New("NearbyLocationsFunc not implemented")
}

func (m *MockRatingLedger) SearchLocations(ctx context.Context, query string, limit int) ([]models.Location, error) {
	if m.SearchLocationsFunc != nil {
		return m.SearchLocationsFunc(ctx, query, limit)
	}
	return nil, errors.New("SearchLocationsFunc not implemented")
}

func (m *MockRatingLedger) PopularLocations(ctx context.Context, since time.Time, limit int) ([]models.LocationActivity, error) {
	if m.PopularLocationsFunc != nil {
		return m.PopularLocationsFunc(ctx, since, limit)
	}
	return nil, errors.New("PopularLocationsFunc not implemented")
}
