package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv               string
	Port                 string
	DatabaseURL          string
	FalAPIKey            string
	FalBaseURL           string
	FalQueueBaseURL      string
	StoragePath          string
	StorageBaseURL       string
	StorageSigningSecret string
	SignedURLTTL         time.Duration
	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	ProviderTimeout      time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		FalAPIKey:            os.Getenv("FAL_API_KEY"),
		FalBaseURL:           getEnv("FAL_BASE_URL", "https://fal.run"),
		FalQueueBaseURL:      getEnv("FAL_QUEUE_BASE_URL", "https://queue.fal.run"),
		StoragePath:          getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:       getEnv("STORAGE_BASE_URL", "http://localhost:8080/media"),
		StorageSigningSecret: os.Getenv("STORAGE_SIGNING_SECRET"),
		SignedURLTTL:         time.Hour * time.Duration(getEnvInt("SIGNED_URL_TTL_HOURS", 24*7)),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ProviderTimeout:      time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.StorageSigningSecret == "" {
		return nil, fmt.Errorf("STORAGE_SIGNING_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
