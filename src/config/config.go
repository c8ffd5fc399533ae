package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port           string
	DatabasePath   string
	MigrationsPath string
	LogLevel       string
	AllowedOrigins []string

	// Reporting settings
	ReportingCurrency string
	TimeZone          string
	Location          *time.Location
	InsightTone       string

	// Engine tuning
	MissingActivityDays int
	NightSpendingShare  float64
	ShortfallWindowDays int
	MetricsCacheTTL     time.Duration

	// Exchange rates
	RatesCacheTTL time.Duration
	ECBRefresh    bool

	// Remote insights service
	InsightsAPIURL         string
	InsightsAPIKey         string
	InsightsTimeout        time.Duration
	InsightsForcePerMinute int
	RedisURL               string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, ReportingCurrency=%s, TimeZone=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ReportingCurrency, Cfg.TimeZone)
	if Cfg.InsightsAPIURL == "" {
		log.Println("INSIGHTS_API_URL not set; insights will be served from the local engine only.")
	}
}

// FromEnv builds an AppConfig from the current process environment.
func FromEnv() *AppConfig {
	tz := getEnv("TIME_ZONE", "Asia/Tashkent")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("WARNING: Invalid TIME_ZONE '%s', falling back to UTC. Error: %v", tz, err)
		tz = "UTC"
		loc = time.UTC
	}

	return &AppConfig{
		// Core
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./leora.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8081"}),

		// Reporting
		ReportingCurrency: strings.ToUpper(getEnv("REPORTING_CURRENCY", "UZS")),
		TimeZone:          tz,
		Location:          loc,
		InsightTone:       strings.ToLower(getEnv("INSIGHT_TONE", "friend")),

		// Engine
		MissingActivityDays: getEnvAsInt("MISSING_ACTIVITY_DAYS", 2),
		NightSpendingShare:  getEnvAsFloat("NIGHT_SPENDING_SHARE", 0.35),
		ShortfallWindowDays: getEnvAsInt("SHORTFALL_WINDOW_DAYS", 3),
		MetricsCacheTTL:     getEnvAsDuration("METRICS_CACHE_TTL", 5*time.Minute),

		// Rates
		RatesCacheTTL: getEnvAsDuration("RATES_CACHE_TTL", 24*time.Hour),
		ECBRefresh:    getEnvAsBool("ECB_REFRESH", false),

		// Remote insights
		InsightsAPIURL:         strings.TrimRight(getEnv("INSIGHTS_API_URL", ""), "/"),
		InsightsAPIKey:         getEnv("INSIGHTS_API_KEY", ""),
		InsightsTimeout:        getEnvAsDuration("INSIGHTS_TIMEOUT", 8*time.Second),
		InsightsForcePerMinute: getEnvAsInt("INSIGHTS_FORCE_PER_MINUTE", 6),
		RedisURL:               getEnv("REDIS_URL", ""),
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsBool retrieves an environment variable as a bool or returns a fallback.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid boolean value for %s ('%s'), using default: %t", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList retrieves a comma-separated environment variable as a trimmed list.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
