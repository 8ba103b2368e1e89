package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	pb "github.com/godilite/freshness-server/api/v1"
	"github.com/godilite/freshness-server/internal/grpc/mocks"
	"github.com/godilite/freshness-server/internal/repository/models"
	"github.com/godilite/freshness-server/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// TestNewGRPCHandlers tests the constructor
func TestNewGRPCHandlers(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		ratings := &mocks.MockRatingService{}

		handlers := NewGRPCHandlers(ratings, zap.NewNop(), 5*time.Second)

		assert.NotNil(t, handlers)
		assert.Equal(t, ratings, handlers.ratings)
		assert.Equal(t, 5*time.Second, handlers.timeout)
		assert.NotNil(t, handlers.logger)
	})

	t.Run("nil rating service panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewGRPCHandlers(nil, zap.NewNop(), time.Second)
		})
	})

	t.Run("zero timeout uses default", func(t *testing.T) {
		handlers := NewGRPCHandlers(&mocks.MockRatingService{}, nil, 0)

		assert.Equal(t, defaultGRPCTimeout, handlers.timeout)
	})
}

func TestSubmitRating(t *testing.T) {
	ctx := context.Background()
	createdAt := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		ratings := &mocks.MockRatingService{
			SubmitRatingFunc: func(_ context.Context, req service.SubmitRatingRequest) (service.SubmitRatingResult, error) {
				assert.Equal(t, "loc-1", req.LocationID)
				assert.Equal(t, 4, req.Score)
				require.NotNil(t, req.SubmitterID)
				assert.Equal(t, "user-9", *req.SubmitterID)
				return service.SubmitRatingResult{
					Rating:           models.Rating{ID: "r-1", LocationID: "loc-1", Score: 4, CreatedAt: createdAt},
					NewLocationScore: &service.ScoreSnapshot{LocationID: "loc-1", Status: service.ScoreRated, WeightedScore: 4.2, RatingCount: 3},
					Message:          "Rating submitted successfully",
				}, nil
			},
		}
		handlers := NewGRPCHandlers(ratings, zap.NewNop(), time.Second)

		submitter := "user-9"
		resp, err := handlers.SubmitRating(ctx, &pb.SubmitRatingRequest{
			LocationID: "loc-1", Score: 4, SubmitterID: &submitter,
		})

		require.NoError(t, err)
		assert.Equal(t, "Rating submitted successfully", resp.Message)
		assert.Equal(t, "r-1", resp.Rating.ID)
		assert.Equal(t, createdAt, resp.Rating.CreatedAt)
		require.NotNil(t, resp.NewLocationScore)
		assert.Equal(t, 4.2, resp.NewLocationScore.WeightedScore)
		assert.Equal(t, "rated", resp.NewLocationScore.Status)
	})

	t.Run("degraded score omits new_location_score", func(t *testing.T) {
		ratings := &mocks.MockRatingService{
			SubmitRatingFunc: func(context.Context, service.SubmitRatingRequest) (service.SubmitRatingResult, error) {
				return service.SubmitRatingResult{
					Rating:  models.Rating{ID: "r-2"},
					Message: "Rating submitted; updated score is temporarily unavailable",
				}, nil
			},
		}
		handlers := NewGRPCHandlers(ratings, zap.NewNop(), time.Second)

		resp, err := handlers.SubmitRating(ctx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: 5})

		require.NoError(t, err)
		assert.Nil(t, resp.NewLocationScore)
		body, err := pb.ToBody(resp)
		require.NoError(t, err)
		_, present := body.AsMap()["new_location_score"]
		assert.False(t, present)
	})
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected codes.Code
	}{
		{"validation", fmt.Errorf("%w: score out of range", service.ErrValidation), codes.InvalidArgument},
		{"not found", fmt.Errorf("score: %w", service.ErrLocationNotFound), codes.NotFound},
		{"storage", fmt.Errorf("score: %w: disk I/O error", service.ErrStorageFailure), codes.Unavailable},
		{"unexpected", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := &mocks.MockRatingService{
				LocationScoreFunc: func(context.Context, string) (service.ScoreSnapshot, error) {
					return service.ScoreSnapshot{}, tt.err
				},
			}
			handlers := NewGRPCHandlers(ratings, zaptest.NewLogger(t), time.Second)

			resp, err := handlers.GetLocationScore(context.Background(), &pb.LocationRequest{LocationID: "loc-1"})

			assert.Nil(t, resp)
			assert.Equal(t, tt.expected, status.Code(err))
		})
	}

	t.Run("deadline exceeded", func(t *testing.T) {
		ratings := &mocks.MockRatingService{
			LocationScoreFunc: func(ctx context.Context, _ string) (service.ScoreSnapshot, error) {
				<-ctx.Done()
				return service.ScoreSnapshot{}, fmt.Errorf("score: %w: %v", service.ErrStorageFailure, ctx.Err())
			},
		}
		handlers := NewGRPCHandlers(ratings, zap.NewNop(), 10*time.Millisecond)

		_, err := handlers.GetLocationScore(context.Background(), &pb.LocationRequest{LocationID: "loc-1"})

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ratings := &mocks.MockRatingService{
			LocationScoreFunc: func(ctx context.Context, _ string) (service.ScoreSnapshot, error) {
				return service.ScoreSnapshot{}, ctx.Err()
			},
		}
		handlers := NewGRPCHandlers(ratings, zap.NewNop(), time.Second)

		_, err := handlers.GetLocationScore(ctx, &pb.LocationRequest{LocationID: "loc-1"})

		assert.Equal(t, codes.Canceled, status.Code(err))
	})
}

func TestLocationIDRequired(t *testing.T) {
	handlers := NewGRPCHandlers(&mocks.MockRatingService{}, zap.NewNop(), time.Second)
	ctx := context.Background()
	empty := &pb.LocationRequest{LocationID: "  "}

	calls := map[string]func() error{
		"GetRatingSummary": func() error { _, err := handlers.GetRatingSummary(ctx, empty); return err },
		"GetLocation":      func() error { _, err := handlers.GetLocation(ctx, empty); return err },
		"GetLocationScore": func() error { _, err := handlers.GetLocationScore(ctx, empty); return err },
		"GetLocationStats": func() error { _, err := handlers.GetLocationStats(ctx, empty); return err },
		"GetTimeAnalysis":  func() error { _, err := handlers.GetTimeAnalysis(ctx, empty); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
			assert.Contains(t, err.Error(), "location_id is required")
		})
	}
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	best := service.PeriodMorning
	ratings := &mocks.MockRatingService{
		RatingSummaryFunc: func(_ context.Context, id string) (service.RatingSummary, error) {
			return service.RatingSummary{
				LocationID:        id,
				CurrentScore:      service.ScoreSnapshot{Status: service.ScoreRated, WeightedScore: 3.9},
				TotalRatings:      12,
				ScoreDistribution: map[int]int64{1: 0, 2: 1, 3: 3, 4: 5, 5: 3},
			}, nil
		},
		TimeAnalysisFunc: func(_ context.Context, id string) (service.TimeAnalysisView, error) {
			return service.TimeAnalysisView{
				LocationID: id,
				WindowDays: 30,
				Analysis:   service.HistoricalAnalysis{BestPeriod: &best, HasReliableData: true},
				Message:    "Best time: morning (6:00 AM - 11:00 AM) - Avg: 4.5/5",
			}, nil
		},
		LocationDetailsFunc: func(_ context.Context, ids []string) ([]service.LocationDetail, error) {
			assert.Equal(t, []string{"a", "b"}, ids)
			return []service.LocationDetail{{Location: models.Location{ID: "a"}}}, nil
		},
		NearbyLocationsFunc: func(_ context.Context, q service.NearbyQuery) ([]service.NearbyResult, error) {
			assert.Equal(t, service.NearbyQuery{Latitude: 40.7128, Longitude: -74.006, RadiusMeters: 1500}, q)
			return []service.NearbyResult{{Location: models.Location{ID: "a"}, DistanceMeters: 120.5}}, nil
		},
		SearchLocationsFunc: func(_ context.Context, query string) ([]models.Location, error) {
			assert.Equal(t, "market", query)
			return []models.Location{}, nil
		},
		TopLocationsFunc: func(_ context.Context, n int) ([]service.RankedLocation, error) {
			assert.Equal(t, 3, n)
			return []service.RankedLocation{{LocationID: "a", Score: 9.45}}, nil
		},
	}
	handlers := NewGRPCHandlers(ratings, zap.NewNop(), time.Second)

	t.Run("summary", func(t *testing.T) {
		resp, err := handlers.GetRatingSummary(ctx, &pb.LocationRequest{LocationID: "loc-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(12), resp.TotalRatings)
		assert.Equal(t, int64(5), resp.ScoreDistribution[4])
		assert.Equal(t, 3.9, resp.CurrentScore.WeightedScore)
		assert.Empty(t, resp.OptimalTimes)
	})

	t.Run("time analysis", func(t *testing.T) {
		resp, err := handlers.GetTimeAnalysis(ctx, &pb.LocationRequest{LocationID: "loc-1"})
		require.NoError(t, err)
		assert.Equal(t, "morning", resp.BestPeriod)
		assert.Empty(t, resp.WorstPeriod)
		assert.True(t, resp.HasReliableData)
		assert.Contains(t, resp.Message, "Best time: morning")
	})

	t.Run("batch locations", func(t *testing.T) {
		resp, err := handlers.GetLocations(ctx, &pb.LocationsRequest{LocationIDs: []string{"a", "b"}})
		require.NoError(t, err)
		require.Len(t, resp.Locations, 1)
		assert.Equal(t, "a", resp.Locations[0].Location.ID)

		_, err = handlers.GetLocations(ctx, &pb.LocationsRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = handlers.GetLocations(ctx, &pb.LocationsRequest{LocationIDs: make([]string, maxBatchLocations+1)})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("nearby", func(t *testing.T) {
		resp, err := handlers.GetNearbyLocations(ctx, &pb.NearbyRequest{
			Latitude: 40.7128, Longitude: -74.006, RadiusMeters: 1500,
		})
		require.NoError(t, err)
		require.Len(t, resp.Locations, 1)
		assert.Equal(t, 120.5, resp.Locations[0].DistanceMeters)
	})

	t.Run("search returns an empty list", func(t *testing.T) {
		resp, err := handlers.SearchLocations(ctx, &pb.SearchRequest{Query: "market"})
		require.NoError(t, err)
		assert.NotNil(t, resp.Locations)
		assert.Empty(t, resp.Locations)
	})

	t.Run("popular", func(t *testing.T) {
		resp, err := handlers.GetPopularLocations(ctx, &pb.PopularRequest{Limit: 3})
		require.NoError(t, err)
		require.Len(t, resp.Locations, 1)
		assert.Equal(t, "a", resp.Locations[0].LocationID)
		assert.Equal(t, 9.45, resp.Locations[0].Score)

		_, err = handlers.GetPopularLocations(ctx, &pb.PopularRequest{Limit: -1})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestUserPreferences(t *testing.T) {
	ctx := context.Background()
	stored := map[string]any{}
	ratings := &mocks.MockRatingService{
		SaveUserPreferencesFunc: func(_ context.Context, userID string, prefs map[string]any) (bool, error) {
			stored[userID] = prefs
			return true, nil
		},
		UserPreferencesFunc: func(_ context.Context, userID string) (map[string]any, bool, error) {
			p, ok := stored[userID]
			if !ok {
				return nil, false, nil
			}
			return p.(map[string]any), true, nil
		},
	}
	handlers := NewGRPCHandlers(ratings, zap.NewNop(), time.Second)

	resp, err := handlers.GetUserPreferences(ctx, &pb.UserPreferencesRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Equal(t, map[string]any{}, resp.Preferences)

	set, err := handlers.SetUserPreferences(ctx, &pb.SetUserPreferencesRequest{
		UserID: "u1", Preferences: map[string]any{"units": "km"},
	})
	require.NoError(t, err)
	assert.True(t, set.Stored)
	assert.Equal(t, "u1", set.UserID)

	resp, err = handlers.GetUserPreferences(ctx, &pb.UserPreferencesRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "km", resp.Preferences["units"])
}

func TestFreshnessService_OverTheWire(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterFreshnessServer(srv, NewGRPCHandlers(&mocks.MockRatingService{
		LocationScoreFunc: func(_ context.Context, id string) (service.ScoreSnapshot, error) {
			if id == "missing" {
				return service.ScoreSnapshot{}, service.ErrLocationNotFound
			}
			return service.ScoreSnapshot{LocationID: id, Status: service.ScoreUnrated}, nil
		},
	}, zaptest.NewLogger(t), time.Second))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := pb.NewFreshnessClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.GetLocationScore(ctx, &pb.LocationRequest{LocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, "unrated", resp.Status)
	assert.Equal(t, "loc-1", resp.LocationID)

	_, err = client.GetLocationScore(ctx, &pb.LocationRequest{LocationID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.SubmitRating(ctx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: 3})
	assert.Equal(t, codes.Internal, status.Code(err), "unset mock surfaces as internal")

	t.Run("raw body with a fractional score is rejected", func(t *testing.T) {
		body, err := structpb.NewStruct(map[string]any{"location_id": "loc-1", "score": 4.5})
		require.NoError(t, err)

		err = conn.Invoke(ctx, pb.Freshness_SubmitRating_FullMethodName, body, new(structpb.Struct))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "malformed request")
	})

	t.Run("raw body decodes into the typed request", func(t *testing.T) {
		body, err := structpb.NewStruct(map[string]any{"location_id": "loc-2", "ignored": true})
		require.NoError(t, err)
		reply := new(structpb.Struct)

		require.NoError(t, conn.Invoke(ctx, pb.Freshness_GetLocationScore_FullMethodName, body, reply))

		assert.Equal(t, "loc-2", reply.AsMap()["location_id"])
		assert.Equal(t, 0.0, reply.AsMap()["weighted_score"])
	})
}
