package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings for the scanner service
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	ScanTimeout        time.Duration
	MaxRequestBodySize int64

	// LicenseKey activates the recognition engine at startup
	LicenseKey string

	// ModelLocation names the recognition settings to load at startup:
	// a local file path, or a blob name when the azure backend is active.
	// Empty means engine defaults.
	ModelLocation string

	// StorageBackend selects the image fetcher: "http" or "azure"
	StorageBackend string

	AzureAccountName  string
	AzureAccountKey   string
	SettingsContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		ScanTimeout:        parseDurationOrDefault("SCAN_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LicenseKey:         os.Getenv("LICENSE_KEY"),
		ModelLocation:      os.Getenv("MODEL_LOCATION"),
		StorageBackend:     getEnvOrDefault("STORAGE_BACKEND", "http"),
		AzureAccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:    os.Getenv("AZURE_STORAGE_KEY"),
		SettingsContainer:  getEnvOrDefault("SETTINGS_CONTAINER", "mrz-settings"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.ScanTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, scan=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.ScanTimeout)
	}
	switch cfg.StorageBackend {
	case "http":
	case "azure":
		if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" {
			return nil, fmt.Errorf("azure backend requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND: %q", cfg.StorageBackend)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
