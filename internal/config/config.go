package config

import (
	"fmt"
	"time"
)

// Config holds all monitoring options. Zero values are filled in by
// Default; Load applies environment overrides on top.
type Config struct {
	// Loki/Grafana endpoints. The core never ships logs itself; these are
	// carried so downstream log-forwarding agents can be pointed at them.
	LokiURL    string `yaml:"loki_url"`
	GrafanaURL string `yaml:"grafana_url"`

	// Prometheus exposition
	PrometheusURL     string `yaml:"prometheus_url"`
	PrometheusPort    int    `yaml:"prometheus_port"`
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or standard
	LogFile   string `yaml:"log_file"`

	// Scraper identity
	ScraperName    string `yaml:"scraper_name"`
	ScraperVersion string `yaml:"scraper_version"`
	Environment    string `yaml:"environment"`

	// Health checks
	HealthCheckEnabled bool `yaml:"health_check_enabled"`
	HealthCheckPort    int  `yaml:"health_check_port"`

	// Extra identity labels attached to every log record and metric sample
	CustomLabels map[string]string `yaml:"custom_labels"`

	// Interval between system resource gauge updates
	SystemMetricsInterval time.Duration `yaml:"system_metrics_interval"`
}

// Default returns the configuration defaults used when no environment
// variables or config file are present.
func Default() Config {
	return Config{
		LokiURL:               "http://localhost:3100",
		GrafanaURL:            "http://localhost:3000",
		PrometheusURL:         "http://localhost:9090",
		PrometheusPort:        8000,
		PrometheusEnabled:     true,
		LogLevel:              "info",
		LogFormat:             "json",
		ScraperName:           "default_scraper",
		ScraperVersion:        "1.0.0",
		Environment:           "development",
		HealthCheckEnabled:    true,
		HealthCheckPort:       8001,
		CustomLabels:          map[string]string{},
		SystemMetricsInterval: 30 * time.Second,
	}
}

// Validate validates the configuration
func (c Config) Validate() error {
	if c.ScraperName == "" {
		return fmt.Errorf("scraper name is required")
	}

	if c.PrometheusPort < 1 || c.PrometheusPort > 65535 {
		return fmt.Errorf("invalid prometheus port: %d", c.PrometheusPort)
	}

	if c.HealthCheckPort < 1 || c.HealthCheckPort > 65535 {
		return fmt.Errorf("invalid health check port: %d", c.HealthCheckPort)
	}

	if c.PrometheusEnabled && c.HealthCheckEnabled && c.PrometheusPort == c.HealthCheckPort {
		return fmt.Errorf("prometheus and health check ports must differ (both %d)", c.PrometheusPort)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.LogFormat {
	case "json", "standard":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or standard)", c.LogFormat)
	}

	for key := range c.CustomLabels {
		if key == "" {
			return fmt.Errorf("custom label keys must not be empty")
		}
		if reservedLabels[key] {
			return fmt.Errorf("custom label %q collides with a reserved label name", key)
		}
	}

	if c.SystemMetricsInterval <= 0 {
		return fmt.Errorf("system metrics interval must be positive: %s", c.SystemMetricsInterval)
	}

	return nil
}

// reservedLabels holds the base identity label names plus every variable
// label used by the metric instruments. A custom label reusing one of these
// would collide at instrument registration, so Validate rejects it up front.
var reservedLabels = map[string]bool{
	"scraper_name":    true,
	"scraper_version": true,
	"environment":     true,
	"operation":       true,
	"status":          true,
	"url_domain":      true,
	"method":          true,
	"status_code":     true,
	"error_type":      true,
	"item_type":       true,
	"reason":          true,
	"queue_type":      true,
}

// Identity returns the immutable identity labels for this configuration.
func (c Config) Identity() Identity {
	custom := make(map[string]string, len(c.CustomLabels))
	for k, v := range c.CustomLabels {
		custom[k] = v
	}
	return Identity{
		Name:        c.ScraperName,
		Version:     c.ScraperVersion,
		Environment: c.Environment,
		Custom:      custom,
	}
}

// Identity is the fixed set of labels attached to every log record and
// metric sample emitted by one configured context. Created once at
// configuration time and never mutated.
type Identity struct {
	Name        string
	Version     string
	Environment string
	Custom      map[string]string
}

// Labels returns the identity as a flat label map.
func (id Identity) Labels() map[string]string {
	labels := map[string]string{
		"scraper_name":    id.Name,
		"scraper_version": id.Version,
		"environment":     id.Environment,
	}
	for k, v := range id.Custom {
		labels[k] = v
	}
	return labels
}
