package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/inkwell/api/internal/analytics"
	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI  string
	Port      string
	DBName    string
	JWTSecret string
	JWTExpiry time.Duration
	LogLevel  slog.Level
	SiteURL   string
	// APIURL is the public base URL of this API, used in robots.txt
	APIURL string

	// Redis backs the dashboard snapshot cache; empty RedisAddr disables it.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	Analytics AnalyticsConfig
}

// AnalyticsConfig holds the dashboard tuning knobs.
type AnalyticsConfig struct {
	Location            *time.Location
	StreakToleranceDays int
	Weights             analytics.Weights
}

// Options converts the config into aggregator options.
func (a AnalyticsConfig) Options() analytics.Options {
	w := a.Weights
	return analytics.Options{
		Location:            a.Location,
		Weights:             &w,
		StreakToleranceDays: analytics.Tolerance(a.StreakToleranceDays),
	}
}

var cfg *Config

func Load() *Config {
	// Load .env file if exists (ignored in production)
	godotenv.Load()

	expiry, err := time.ParseDuration(getEnv("JWT_EXPIRY", "168h"))
	if err != nil {
		expiry = 168 * time.Hour // 7 days default
	}

	cacheTTL, err := time.ParseDuration(getEnv("DASHBOARD_CACHE_TTL", "15m"))
	if err != nil {
		cacheTTL = 15 * time.Minute
	}

	port := getEnv("PORT", "8080")

	cfg = &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Port:          port,
		DBName:        getEnv("DB_NAME", "inkwell"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiry:     expiry,
		LogLevel:      parseLevel(getEnv("LOG_LEVEL", "info")),
		SiteURL:       strings.TrimRight(getEnv("SITE_URL", "http://localhost:5173"), "/"),
		APIURL:        strings.TrimRight(getEnv("API_URL", "http://localhost:"+port), "/"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      cacheTTL,
		Analytics: AnalyticsConfig{
			Location:            loadLocation(getEnv("ANALYTICS_TIMEZONE", "Local")),
			StreakToleranceDays: streakTolerance(getEnvInt("ANALYTICS_STREAK_TOLERANCE_DAYS", analytics.DefaultStreakToleranceDays)),
			Weights: analytics.Weights{
				Views:    int64(getEnvInt("ANALYTICS_VIEW_WEIGHT", int(analytics.DefaultViewWeight))),
				Likes:    int64(getEnvInt("ANALYTICS_LIKE_WEIGHT", int(analytics.DefaultLikeWeight))),
				Comments: int64(getEnvInt("ANALYTICS_COMMENT_WEIGHT", int(analytics.DefaultCommentWeight))),
			},
		},
	}

	return cfg
}

// Get returns the current config (must call Load first)
func Get() *Config {
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("config_invalid_int", "key", key, "value", value)
		return fallback
	}
	return n
}

// streakTolerance accepts zero (same-day only) and rejects negative values.
func streakTolerance(days int) int {
	if days < 0 {
		slog.Warn("config_invalid_streak_tolerance", "value", days)
		return analytics.DefaultStreakToleranceDays
	}
	return days
}

func loadLocation(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("config_invalid_timezone", "value", name, "error", err.Error())
		return time.Local
	}
	return loc
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
