package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	pb "github.com/godilite/freshness-server/api/v1"
	"github.com/godilite/freshness-server/internal/cachecoord"
	"github.com/godilite/freshness-server/internal/config"
	handler "github.com/godilite/freshness-server/internal/grpc"
	"github.com/godilite/freshness-server/internal/metrics"
	"github.com/godilite/freshness-server/internal/repository"
	"github.com/godilite/freshness-server/internal/service"
	"github.com/godilite/freshness-server/internal/warmer"
	"github.com/godilite/freshness-server/pkg/cache"
	dbbuilder "github.com/godilite/freshness-server/pkg/database"
	grpcsrv "github.com/godilite/freshness-server/pkg/grpc/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const (
	grpcTimeout     = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	dbPool        *sql.DB
	cache         *cache.Cache
	ledger        *repository.RatingRepository
	ratings       *service.RatingService
	warmer        *warmer.Warmer
	grpcServer    *grpcsrv.Server
	metricsServer *http.Server
	metricsLis    net.Listener
	cancel        context.CancelFunc
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(dataSource(cfg)),
		dbbuilder.WithInitStatements(repository.Schema...),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	cacheClient := cache.New(
		cache.WithAddress(cfg.RedisAddr),
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
		cache.WithOpTimeout(cfg.CacheOpTimeout),
		cache.WithStateChangeHook(func(name, from, to string) {
			metrics.CacheBreakerState.WithLabelValues(name).Set(metrics.BreakerStateValue(to))
			logger.Warn("cache breaker state changed",
				zap.String("breaker", name), zap.String("from", from), zap.String("to", to))
		}),
	)
	// an unreachable cache only degrades latency
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn("cache unreachable at startup, serving from the ledger", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	}

	ledger := repository.NewRatingRepository(dbPool)
	coordinator := cachecoord.New(cacheClient, logger,
		cachecoord.WithTTLs(cfg.CacheTTLs),
		cachecoord.WithOpTimeout(cfg.CacheOpTimeout),
	)

	engine := service.NewScoreEngine()
	analyzer := service.NewTemporalAnalyzer(service.WithLocation(loc))
	scoring := service.NewScoringService(ledger, engine, logger)
	ratings := service.NewRatingService(ledger, scoring, analyzer, coordinator, service.Options{
		DefaultRadiusMeters: cfg.DefaultSearchRadiusMeters,
		ResultLimit:         cfg.DefaultResultLimit,
		AnalysisDays:        cfg.TimeAnalysisDays,
	}, logger)

	cacheWarmer := warmer.New(ledger, ratings, coordinator, logger)

	grpcHandlers := handler.NewGRPCHandlers(ratings, logger, grpcTimeout)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	)
	if err != nil {
		_ = multierr.Combine(cacheClient.Close(), dbPool.Close())
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterFreshnessServer(s, grpcHandlers)
	})

	a := &App{
		cfg:        cfg,
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		ledger:     ledger,
		ratings:    ratings,
		warmer:     cacheWarmer,
		grpcServer: grpcServer,
	}

	if cfg.MetricsPort > 0 {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.MetricsPort))
		if err != nil {
			_ = a.closeStores()
			return nil, fmt.Errorf("failed to listen on metrics port %d: %w", cfg.MetricsPort, err)
		}
		a.metricsLis = lis
		a.metricsServer = &http.Server{
			Handler:           metricsRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

// dataSource lets concurrent readers and the writer wait on each other
// instead of failing with SQLITE_BUSY.
func dataSource(cfg *config.Config) string {
	if cfg.DBDriver != "sqlite3" || cfg.DBPath == ":memory:" {
		return cfg.DBPath
	}
	return cfg.DBPath + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

func metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start launches the gRPC server, the metrics endpoint and the warmer. It
// returns immediately.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.grpcServer.Start()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Serve(a.metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		a.logger.Info("metrics endpoint started", zap.String("addr", a.metricsLis.Addr().String()))
	}

	if a.cfg.WarmEnabled {
		a.warmer.Start(ctx, a.cfg.WarmInterval)
	}
}

// Shutdown stops accepting requests, waits for an in-flight warm pass and
// closes the stores, in that order.
func (a *App) Shutdown(ctx context.Context) error {
	var err error

	if shutdownErr := a.grpcServer.Shutdown(ctx); shutdownErr != nil {
		err = multierr.Append(err, fmt.Errorf("grpc shutdown: %w", shutdownErr))
	}

	if stopErr := a.warmer.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("warmer stop: %w", stopErr))
	}
	if a.cancel != nil {
		a.cancel()
	}

	if a.metricsServer != nil {
		if shutdownErr := a.metricsServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("metrics shutdown: %w", shutdownErr))
		}
	}

	return multierr.Append(err, a.closeStores())
}

func (a *App) closeStores() error {
	var err error
	if closeErr := a.cache.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("cache close: %w", closeErr))
	}
	if closeErr := a.dbPool.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("database close: %w", closeErr))
	}
	return err
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.Start(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		a.logger.Error("shutdown completed with errors", zap.Error(err))
		return err
	}
	a.logger.Info("graceful shutdown completed successfully")

	_ = a.logger.Sync()
	return nil
}
