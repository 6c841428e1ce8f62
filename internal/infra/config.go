package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv                string
	Port                  string
	DatabaseURL           string
	StoragePath           string
	GotenbergURL          string
	SentryDSN             string
	MaxUploadMB           int64
	RetentionWindow       time.Duration
	SweepInterval         time.Duration
	ConvertWorkers        int
	ConvertTimeout        time.Duration
	HTTPReadTimeout       time.Duration
	HTTPWriteTimeout      time.Duration
	HTTPIdleTimeout       time.Duration
	ProgressBufferPerConn int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		StoragePath:           getEnv("STORAGE_PATH", "./storage"),
		GotenbergURL:          getEnv("GOTENBERG_URL", "http://localhost:3000"),
		SentryDSN:             os.Getenv("SENTRY_DSN"),
		MaxUploadMB:           int64(getEnvInt("MAX_UPLOAD_MB", 100)),
		RetentionWindow:       time.Hour * time.Duration(getEnvInt("RETENTION_WINDOW_HOURS", 24)),
		SweepInterval:         time.Hour * time.Duration(getEnvInt("SWEEP_INTERVAL_HOURS", 6)),
		ConvertWorkers:        getEnvInt("CONVERT_WORKERS", 4),
		ConvertTimeout:        time.Second * time.Duration(getEnvInt("CONVERT_TIMEOUT_SECONDS", 300)),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		ProgressBufferPerConn: getEnvInt("PROGRESS_BUFFER_PER_CONN", 64),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ConvertWorkers < 1 {
		cfg.ConvertWorkers = 1
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
