package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"spendora-backend/rates"
)

const devJWTSecret = "your-dev-secret-key"

// Load loads configuration from the environment, reading a .env file first when
// one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:                 getEnv("APP_ENV", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", "mongodb://localhost:27017"),
		DatabaseName:           getEnv("DATABASE_NAME", "Spendora_Dev"),
		JWTSecret:              getEnv("JWT_SECRET", devJWTSecret),
		TokenTTL:               getEnvDuration("TOKEN_TTL", 24*time.Hour),
		DefaultCurrency:        rates.NormalizeCode(getEnv("DEFAULT_CURRENCY", rates.BaseCurrency)),
		RedisAddress:           getEnv("REDIS_ADDRESS", ""),
		GCSBucket:              getEnv("GCS_BUCKET", ""),
		GCSCredentialsJSON:     getEnv("GCS_CREDENTIALS_JSON", ""),
		CORSAllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		SnapshotPollInterval:   getEnvDuration("SNAPSHOT_POLL_INTERVAL", 2*time.Second),
		TrendWindow:            getEnvInt("TREND_WINDOW", 12),
		CollectionUserName:     "users",
		CollectionExpensesName: "expenses",
		CollectionSettingsName: "settings",
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	if c.Port == "" {
		problems = append(problems, "PORT must not be empty")
	}
	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL must not be empty")
	}
	if c.DatabaseName == "" {
		problems = append(problems, "DATABASE_NAME must not be empty")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		problems = append(problems, "JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.TrendWindow <= 0 {
		problems = append(problems, "TREND_WINDOW must be positive")
	}
	if c.SnapshotPollInterval <= 0 {
		problems = append(problems, "SNAPSHOT_POLL_INTERVAL must be positive")
	}
	if c.GCSCredentialsJSON != "" && c.GCSBucket == "" {
		problems = append(problems, "GCS_BUCKET is required when GCS_CREDENTIALS_JSON is set")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	logg.WithField("key", key).Warn(fmt.Sprintf("invalid duration %q, using %s", value, defaultValue))
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logg.WithField("key", key).Warn(fmt.Sprintf("invalid integer %q, using %d", value, defaultValue))
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
