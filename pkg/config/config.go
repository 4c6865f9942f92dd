package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment          string
	ServerPort           int
	AppSecret            string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	DatabaseURL          string
	RedisURL             string
	LogLevel             string
	CORSAllowedOrigins   []string
	PaymentCheckoutURL   string
	DefaultRegion        string
	TerraformTemplateDir string
	GaugeRefreshInterval time.Duration
	OTLPEndpoint         string
	AuthRateLimit        int
	AuthRateWindow       time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "4000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "development")

	// A dev-only default keeps local startup friction-free; anywhere else the
	// secret must be provided.
	secret := getEnv("APP_SECRET", "")
	if secret == "" && environment == "development" {
		secret = "qorlia-dev-secret"
	}
	if secret == "" {
		return nil, fmt.Errorf("APP_SECRET must be set outside development")
	}
	if len(secret) < 10 {
		return nil, fmt.Errorf("APP_SECRET must be at least 10 characters")
	}

	accessTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TTL: %w", err)
	}

	refreshTTL, err := time.ParseDuration(getEnv("JWT_REFRESH_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_TTL: %w", err)
	}

	gaugeSeconds, err := strconv.Atoi(getEnv("GAUGE_REFRESH_INTERVAL_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid GAUGE_REFRESH_INTERVAL_SECONDS: %w", err)
	}

	authRateLimit, err := strconv.Atoi(getEnv("AUTH_RATE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}

	authRateWindow, err := time.ParseDuration(getEnv("AUTH_RATE_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_WINDOW: %w", err)
	}

	return &Config{
		Environment:     environment,
		ServerPort:      port,
		AppSecret:       secret,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		PaymentCheckoutURL:   getEnv("PAYMENT_CHECKOUT_URL", "https://payments.qorlia.com/demo-checkout"),
		DefaultRegion:        getEnv("DEFAULT_REGION", "ap-south-1"),
		TerraformTemplateDir: getEnv("TERRAFORM_TEMPLATE_DIR", "./terraform/templates"),
		GaugeRefreshInterval: time.Duration(gaugeSeconds) * time.Second,
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AuthRateLimit:        authRateLimit,
		AuthRateWindow:       authRateWindow,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
