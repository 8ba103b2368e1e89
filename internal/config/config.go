package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/godilite/freshness-server/internal/cachecoord"
	"go.uber.org/zap"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	DBPath   string
	DBDriver string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheOpTimeout time.Duration
	CacheTTLs      cachecoord.TTLs

	GRPCPort              int
	GRPCReflectionEnabled bool
	MetricsPort           int

	WarmEnabled  bool
	WarmInterval time.Duration

	DefaultSearchRadiusMeters int
	DefaultResultLimit        int
	TimeAnalysisDays          int
	AnalysisTimezone          string
}

// LoadFromEnv loads configuration from environment variables. Malformed
// numbers and booleans fall back to their defaults.
func LoadFromEnv() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		DBPath:   getEnv("DB_PATH", "./data/freshness.db"),
		DBDriver: getEnv("DB_DRIVER", "sqlite3"),

		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		CacheOpTimeout: time.Duration(getEnvInt("CACHE_OP_TIMEOUT_MS", 250)) * time.Millisecond,
		CacheTTLs: cachecoord.TTLs{
			Nearby:       getEnvSeconds("CACHE_TTL_NEARBY_S", 300),
			Detail:       getEnvSeconds("CACHE_TTL_DETAIL_S", 600),
			Score:        getEnvSeconds("CACHE_TTL_SCORE_S", 60),
			Summary:      getEnvSeconds("CACHE_TTL_SUMMARY_S", 300),
			TimeAnalysis: getEnvSeconds("CACHE_TTL_TIME_S", 3600),
			Popular:      getEnvSeconds("CACHE_TTL_POPULAR_S", 1800),
			Search:       getEnvSeconds("CACHE_TTL_SEARCH_S", 180),
			UserPrefs:    getEnvSeconds("CACHE_TTL_USER_PREFS_S", 86400),
			Stats:        getEnvSeconds("CACHE_TTL_DETAIL_S", 600),
		},

		GRPCPort:              getEnvInt("GRPC_PORT", 50051),
		GRPCReflectionEnabled: getEnvBool("GRPC_REFLECTION_ENABLED", false),
		MetricsPort:           getEnvInt("METRICS_PORT", 9090),

		WarmEnabled:  getEnvBool("WARM_ENABLED", true),
		WarmInterval: time.Duration(getEnvInt("WARM_INTERVAL_MINUTES", 30)) * time.Minute,

		DefaultSearchRadiusMeters: getEnvInt("DEFAULT_SEARCH_RADIUS_M", 5000),
		DefaultResultLimit:        getEnvInt("DEFAULT_RESULT_LIMIT", 20),
		TimeAnalysisDays:          getEnvInt("TIME_ANALYSIS_DAYS", 30),
		AnalysisTimezone:          getEnv("ANALYSIS_TIMEZONE", "UTC"),
	}
}

// Location resolves AnalysisTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AnalysisTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_TIMEZONE %q: %w", c.AnalysisTimezone, err)
	}
	return loc, nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
