package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "TOKEN_TTL", "TREND_WINDOW", "DEFAULT_CURRENCY", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.AppEnv != "development" || cfg.Port != "8080" || cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.DefaultCurrency != "INR" || cfg.TrendWindow != 12 || cfg.CORSAllowedOrigins != nil {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN_TTL", "90")
	t.Setenv("SNAPSHOT_POLL_INTERVAL", "500ms")
	t.Setenv("TREND_WINDOW", "6")
	t.Setenv("DEFAULT_CURRENCY", " usd ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.TokenTTL != 90*time.Second || cfg.SnapshotPollInterval != 500*time.Millisecond {
		t.Fatalf("durations not parsed: %+v", cfg)
	}
	if cfg.TrendWindow != 6 || cfg.DefaultCurrency != "USD" {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{AppEnv: "production", JWTSecret: devJWTSecret, TrendWindow: 0, TokenTTL: time.Hour, SnapshotPollInterval: time.Second}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected an error")
	}
	for _, want := range []string{"PORT", "DATABASE_URL", "JWT_SECRET must be set in production", "TREND_WINDOW"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}
