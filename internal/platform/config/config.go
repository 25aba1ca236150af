package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	JWTSecret          string
	StorageDriver      string
	MigrationsPath     string
	RunMigrations      bool
	OperatingTimezone  string
	OperatingLocation  *time.Location
	RedisURL           string
	IdempotencyTTL     time.Duration
	RateLimit          string
	CORSAllowedOrigins []string
	HistoryMaxLimit    int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", true)
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("OPERATING_TIMEZONE", "America/Santo_Domingo")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("HISTORY_MAX_LIMIT", 100)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		StorageDriver:  strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		RunMigrations:  v.GetBool("RUN_MIGRATIONS"),
		RedisURL:       v.GetString("REDIS_URL"),
		RateLimit:      v.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT not set, using default", slog.String("port", cfg.Port))
	}

	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		slog.Warn("Unknown STORAGE_DRIVER, using postgres", slog.String("value", cfg.StorageDriver))
		cfg.StorageDriver = StoragePostgres
	}
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		slog.Warn("PGSQL_URL environment variable not set")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key")
	}

	cfg.OperatingTimezone = v.GetString("OPERATING_TIMEZONE")
	loc, err := time.LoadLocation(cfg.OperatingTimezone)
	if err != nil {
		slog.Warn("Invalid OPERATING_TIMEZONE, using UTC", slog.String("value", cfg.OperatingTimezone), slog.String("error", err.Error()))
		cfg.OperatingTimezone = "UTC"
		loc = time.UTC
	}
	cfg.OperatingLocation = loc

	ttlStr := v.GetString("IDEMPOTENCY_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
		slog.Warn("Invalid IDEMPOTENCY_TTL, using default", slog.String("value", ttlStr), slog.Duration("default", ttl))
	}
	cfg.IdempotencyTTL = ttl

	cfg.HistoryMaxLimit = v.GetInt("HISTORY_MAX_LIMIT")
	if cfg.HistoryMaxLimit <= 0 {
		cfg.HistoryMaxLimit = 100
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
