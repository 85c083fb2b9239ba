package config

import "time"

type Config struct {
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	DatabaseName           string
	JWTSecret              string
	TokenTTL               time.Duration
	DefaultCurrency        string
	RedisAddress           string
	GCSBucket              string
	GCSCredentialsJSON     string
	CORSAllowedOrigins     []string
	LogLevel               string
	SnapshotPollInterval   time.Duration
	TrendWindow            int
	CollectionUserName     string
	CollectionExpensesName string
	CollectionSettingsName string
}

// IsDevelopment checks if the current environment is development
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction checks if the current environment is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetDatabaseName returns the appropriate database name based on environment
func (c *Config) GetDatabaseName() string {
	if c.AppEnv == "test" && c.DatabaseName != "" {
		return c.DatabaseName + "_test"
	}
	return c.DatabaseName
}
