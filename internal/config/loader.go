package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the configuration from defaults, an optional YAML file named
// by SCRAPEWATCH_CONFIG, and environment variable overrides, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("SCRAPEWATCH_CONFIG"); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	cfg.LokiURL = getEnv("LOKI_URL", cfg.LokiURL)
	cfg.GrafanaURL = getEnv("GRAFANA_URL", cfg.GrafanaURL)
	cfg.PrometheusURL = getEnv("PROMETHEUS_URL", cfg.PrometheusURL)
	cfg.PrometheusPort = getEnvInt("PROMETHEUS_PORT", cfg.PrometheusPort)
	cfg.PrometheusEnabled = getEnvBool("PROMETHEUS_ENABLED", cfg.PrometheusEnabled)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.ScraperName = getEnv("SCRAPER_NAME", cfg.ScraperName)
	cfg.ScraperVersion = getEnv("SCRAPER_VERSION", cfg.ScraperVersion)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.HealthCheckEnabled = getEnvBool("HEALTH_CHECK_ENABLED", cfg.HealthCheckEnabled)
	cfg.HealthCheckPort = getEnvInt("HEALTH_CHECK_PORT", cfg.HealthCheckPort)
	cfg.SystemMetricsInterval = getEnvDuration("SYSTEM_METRICS_INTERVAL", cfg.SystemMetricsInterval)

	if cfg.CustomLabels == nil {
		cfg.CustomLabels = map[string]string{}
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file. Options absent from the file
// keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.CustomLabels == nil {
		cfg.CustomLabels = map[string]string{}
	}

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
