package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	pb "github.com/godilite/freshness-server/api/v1"
	"github.com/godilite/freshness-server/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultGRPCTimeout = 10 * time.Second
	maxBatchLocations  = 100
)

type GRPCHandlers struct {
	pb.UnimplementedFreshnessServer
	ratings RatingService
	logger  *zap.Logger
	timeout time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(ratings RatingService, logger *zap.Logger, timeout time.Duration) *GRPCHandlers {
	if ratings == nil {
		panic("nil RatingService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultGRPCTimeout
	}
	return &GRPCHandlers{
		ratings: ratings,
		logger:  logger.Named("grpc-handler"),
		timeout: timeout,
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrLocationNotFound):
		s.logger.Info("location not found", zap.String("op", op))
		return status.Error(codes.NotFound, "location not found")
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Unavailable, "rating storage unavailable")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}

func requireLocationID(req *pb.LocationRequest) (string, error) {
	id := strings.TrimSpace(req.LocationID)
	if id == "" {
		return "", status.Error(codes.InvalidArgument, "location_id is required")
	}
	return id, nil
}

func (s *GRPCHandlers) SubmitRating(ctx context.Context, req *pb.SubmitRatingRequest) (*pb.SubmitRatingResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.ratings.SubmitRating(ctx, service.SubmitRatingRequest{
		LocationID:  req.LocationID,
		Score:       req.Score,
		SubmitterID: req.SubmitterID,
	})
	if err != nil {
		return nil, s.handleError(ctx, "SubmitRating", err)
	}

	resp := &pb.SubmitRatingResponse{Rating: toPBRating(res.Rating), Message: res.Message}
	if res.NewLocationScore != nil {
		score := toPBScore(*res.NewLocationScore)
		resp.NewLocationScore = &score
	}
	return resp, nil
}

func (s *GRPCHandlers) GetRatingSummary(ctx context.Context, req *pb.LocationRequest) (*pb.RatingSummary, error) {
	id, err := requireLocationID(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.ratings.RatingSummary(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, "GetRatingSummary", err)
	}
	return toPBSummary(summary), nil
}

func (s *GRPCHandlers) GetLocation(ctx context.Context, req *pb.LocationRequest) (*pb.LocationDetail, error) {
	id, err := requireLocationID(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := s.ratings.LocationDetail(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, "GetLocation", err)
	}
	out := toPBDetail(detail)
	return &out, nil
}

func (s *GRPCHandlers) GetLocations(ctx context.Context, req *pb.LocationsRequest) (*pb.LocationsResponse, error) {
	if len(req.LocationIDs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "location_ids is required")
	}
	if len(req.LocationIDs) > maxBatchLocations {
		return nil, status.Errorf(codes.InvalidArgument, "at most %d location_ids per request", maxBatchLocations)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	details, err := s.ratings.LocationDetails(ctx, req.LocationIDs)
	if err != nil {
		return nil, s.handleError(ctx, "GetLocations", err)
	}
	resp := &pb.LocationsResponse{Locations: make([]pb.LocationDetail, 0, len(details))}
	for _, d := range details {
		resp.Locations = append(resp.Locations, toPBDetail(d))
	}
	return resp, nil
}

func (s *GRPCHandlers) GetLocationScore(ctx context.Context, req *pb.LocationRequest) (*pb.LocationScore, error) {
	id, err := requireLocationID(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.ratings.LocationScore(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, "GetLocationScore", err)
	}
	out := toPBScore(snap)
	return &out, nil
}

func (s *GRPCHandlers) GetLocationStats(ctx context.Context, req *pb.LocationRequest) (*pb.LocationStats, error) {
	id, err := requireLocationID(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.ratings.LocationStats(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, "GetLocationStats", err)
	}
	return toPBStats(stats), nil
}

func (s *GRPCHandlers) GetTimeAnalysis(ctx context.Context, req *pb.LocationRequest) (*pb.TimeAnalysis, error) {
	id, err := requireLocationID(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.ratings.TimeAnalysis(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, "GetTimeAnalysis", err)
	}
	return toPBTimeAnalysis(view), nil
}

func (s *GRPCHandlers) GetNearbyLocations(ctx context.Context, req *pb.NearbyRequest) (*pb.NearbyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.ratings.NearbyLocations(ctx, service.NearbyQuery{
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
	})
	if err != nil {
		return nil, s.handleError(ctx, "GetNearbyLocations", err)
	}
	return &pb.NearbyResponse{Locations: toPBNearby(results)}, nil
}

func (s *GRPCHandlers) SearchLocations(ctx context.Context, req *pb.SearchRequest) (*pb.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	locs, err := s.ratings.SearchLocations(ctx, req.Query)
	if err != nil {
		return nil, s.handleError(ctx, "SearchLocations", err)
	}
	return &pb.SearchResponse{Locations: toPBLocations(locs)}, nil
}

func (s *GRPCHandlers) GetPopularLocations(ctx context.Context, req *pb.PopularRequest) (*pb.PopularResponse, error) {
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	top, err := s.ratings.TopLocations(ctx, req.Limit)
	if err != nil {
		return nil, s.handleError(ctx, "GetPopularLocations", err)
	}
	return &pb.PopularResponse{Locations: toPBRanked(top)}, nil
}

func (s *GRPCHandlers) GetUserPreferences(ctx context.Context, req *pb.UserPreferencesRequest) (*pb.UserPreferencesResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prefs, found, err := s.ratings.UserPreferences(ctx, req.UserID)
	if err != nil {
		return nil, s.handleError(ctx, "GetUserPreferences", err)
	}
	if prefs == nil {
		prefs = map[string]any{}
	}
	return &pb.UserPreferencesResponse{UserID: req.UserID, Found: found, Preferences: prefs}, nil
}

func (s *GRPCHandlers) SetUserPreferences(ctx context.Context, req *pb.SetUserPreferencesRequest) (*pb.SetUserPreferencesResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stored, err := s.ratings.SaveUserPreferences(ctx, req.UserID, req.Preferences)
	if err != nil {
		return nil, s.handleError(ctx, "SetUserPreferences", err)
	}
	return &pb.SetUserPreferencesResponse{UserID: req.UserID, Stored: stored}, nil
}
