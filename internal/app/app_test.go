package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pb "github.com/godilite/freshness-server/api/v1"
	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/config"
	"github.com/godilite/freshness-server/internal/repository/models"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func testConfig(t *testing.T, redisAddr string) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:           "development",
		DBDriver:         "sqlite3",
		DBPath:           filepath.Join(t.TempDir(), "data", "freshness.db"),
		RedisAddr:        redisAddr,
		CacheOpTimeout:   250 * time.Millisecond,
		CacheTTLs:        cachecoord.DefaultTTLs(),
		GRPCPort:         0,
		MetricsPort:      0,
		WarmEnabled:      true,
		WarmInterval:     time.Hour,
		AnalysisTimezone: "UTC",
	}
}

func TestNewApp_InvalidTimezone(t *testing.T) {
	cfg := testConfig(t, "localhost:0")
	cfg.AnalysisTimezone = "Not/AZone"

	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t))

	assert.Error(t, err)
}

func TestMetricsRouter(t *testing.T) {
	rec := httptest.NewRecorder()
	metricsRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "freshness_warm_passes_skipped_total")
}

func TestDataSource(t *testing.T) {
	assert.Equal(t, ":memory:", dataSource(&config.Config{DBDriver: "sqlite3", DBPath: ":memory:"}))
	assert.Equal(t, "data/f.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on",
		dataSource(&config.Config{DBDriver: "sqlite3", DBPath: "data/f.db"}))
}

func TestApp_EndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	a, err := NewApp(ctx, testConfig(t, mr.Addr()), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = a.ledger.CreateLocation(ctx, models.Location{ID: "loc-1", Name: "Union Square Market", Latitude: 40.7359, Longitude: -73.9911})
	require.NoError(t, err)

	a.Start(ctx)
	shutdownDone := false
	t.Cleanup(func() {
		if !shutdownDone {
			_ = a.Shutdown(context.Background())
		}
	})

	conn, err := grpc.NewClient(a.grpcServer.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	health, err := healthpb.NewHealthClient(conn).Check(reqCtx,
		&healthpb.HealthCheckRequest{Service: pb.ServiceName}, grpc.WaitForReady(true))
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.Status)

	client := pb.NewFreshnessClient(conn)

	for _, score := range []int{5, 1} {
		_, err := client.SubmitRating(reqCtx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: score})
		require.NoError(t, err)
	}

	resp, err := client.GetLocationScore(reqCtx, &pb.LocationRequest{LocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, "rated", resp.Status)
	assert.Equal(t, 2.9, resp.WeightedScore)
	assert.True(t, mr.Exists(cachecoord.ScoreKey("loc-1")))

	summary, err := client.GetRatingSummary(reqCtx, &pb.LocationRequest{LocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalRatings)

	_, err = client.SubmitRating(reqCtx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: 6})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SubmitRating(reqCtx, &pb.SubmitRatingRequest{LocationID: "nowhere", Score: 3})
	assert.Equal(t, codes.NotFound, status.Code(err))

	// a rating write drops the cached summary
	_, err = client.SubmitRating(reqCtx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: 5})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cachecoord.SummaryKey("loc-1")))

	shutdownDone = true
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestApp_ServesWithoutCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	ctx := context.Background()

	a, err := NewApp(ctx, testConfig(t, addr), zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = a.ledger.CreateLocation(ctx, models.Location{ID: "loc-1", Name: "Pier Bakery", Latitude: 47.6097, Longitude: -122.3422})
	require.NoError(t, err)

	a.Start(ctx)
	defer func() { _ = a.Shutdown(context.Background()) }()

	conn, err := grpc.NewClient(a.grpcServer.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client := pb.NewFreshnessClient(conn)

	_, err = client.SubmitRating(reqCtx, &pb.SubmitRatingRequest{LocationID: "loc-1", Score: 4}, grpc.WaitForReady(true))
	require.NoError(t, err)

	resp, err := client.GetLocationScore(reqCtx, &pb.LocationRequest{LocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, 4.0, resp.WeightedScore)
}
