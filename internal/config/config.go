package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	EnrollmentCacheTTL   time.Duration
	AllowInactiveEnroll  bool
	EnrollRateLimit      int
	EnrollRateWindow     time.Duration
	EnrollmentCodeLength int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "LMS API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("enrollment.cache_ttl", "5m")
	v.SetDefault("enrollment.allow_inactive", false)
	v.SetDefault("enrollment.rate_limit", 10)
	v.SetDefault("enrollment.rate_window", "1m")
	v.SetDefault("enrollment.code_length", 6)

	ttlString := v.GetString("enrollment.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid enrollment cache ttl: %w", err)
	}

	windowString := v.GetString("enrollment.rate_window")
	if windowString == "" {
		windowString = "1m"
	}

	window, err := time.ParseDuration(windowString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid enrollment rate window: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		EnrollmentCacheTTL:   ttl,
		AllowInactiveEnroll:  v.GetBool("enrollment.allow_inactive"),
		EnrollRateLimit:      v.GetInt("enrollment.rate_limit"),
		EnrollRateWindow:     window,
		EnrollmentCodeLength: v.GetInt("enrollment.code_length"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.EnrollmentCodeLength < 4 || cfg.EnrollmentCodeLength > 16 {
		cfg.EnrollmentCodeLength = 6
	}

	return cfg, nil
}
