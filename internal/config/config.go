package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration read from the environment.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Database
	DBDriver    string
	DatabaseURL string
	SeedPath    string
	TxTimeout   time.Duration

	// Travel estimation
	ORSAPIKey           string
	ORSProfile          string
	ORSCountry          string
	RedisURL            string
	EstimateTimeout     time.Duration
	EstimateConcurrency int
	BreakerFailures     uint32
	BreakerOpenTimeout  time.Duration

	// Groups and routes
	MaxGroupsPerRequest int
	DepotAddress        string
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      Get("PORT", "8080"),
		LogLevel:  Get("LOG_LEVEL", "info"),
		LogFormat: Get("LOG_FORMAT", "text"),

		DBDriver:    Get("DB_DRIVER", "sqlite"),
		DatabaseURL: Get("DATABASE_URL", "data/app.db"),
		SeedPath:    Get("SEED_PATH", "data/seeds/reservations.json"),
		TxTimeout:   GetDuration("TX_TIMEOUT", 5*time.Second),

		ORSAPIKey:           os.Getenv("ORS_API_KEY"),
		ORSProfile:          Get("ORS_PROFILE", "driving-car"),
		ORSCountry:          os.Getenv("ORS_COUNTRY"),
		RedisURL:            os.Getenv("REDIS_URL"),
		EstimateTimeout:     GetDuration("ESTIMATE_TIMEOUT", 8*time.Second),
		EstimateConcurrency: GetInt("ESTIMATE_CONCURRENCY", 4),
		BreakerFailures:     uint32(GetInt("BREAKER_FAILURE_THRESHOLD", 5)),
		BreakerOpenTimeout:  GetDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),

		MaxGroupsPerRequest: GetInt("MAX_GROUPS_PER_REQUEST", 4),
		DepotAddress:        Get("DEPOT_ADDRESS", ""),
	}
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
