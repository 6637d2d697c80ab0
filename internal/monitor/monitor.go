// Package monitor composes the monitoring facade for a scraping workload:
// identity-bound structured logging, the Prometheus instrument set, the
// health check registry, and the operation tracker behind one context
// object with a scoped lifecycle.
package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrapewatch/scrapewatch/internal/config"
	"github.com/scrapewatch/scrapewatch/internal/health"
	"github.com/scrapewatch/scrapewatch/internal/logging"
	"github.com/scrapewatch/scrapewatch/internal/metrics"
	"github.com/scrapewatch/scrapewatch/internal/tracker"
)

// Monitor is the monitoring context for one scraping workload. Create it
// once at startup, derive component loggers and tracked operations from it,
// and call Shutdown on exit.
type Monitor struct {
	cfg       config.Config
	identity  config.Identity
	logger    zerolog.Logger
	logCloser io.Closer
	collector *metrics.Collector
	checker   *health.Checker
	tracker   *tracker.Tracker
	sampler   *metrics.SystemSampler

	metricsServer *metrics.Server
	healthServer  *health.Server

	shutdownOnce sync.Once
}

// New builds the monitoring context and starts its background services:
// the system metrics sampler, and the metrics and health HTTP servers when
// enabled. A server that fails to bind is logged and skipped; the scraping
// workload continues without that endpoint.
func New(cfg config.Config) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}

	identity := cfg.Identity()
	collector := metrics.NewCollector(identity)
	checker := health.NewChecker(identity, logging.Component(logger, "health"))
	checker.RegisterDefaults()

	m := &Monitor{
		cfg:       cfg,
		identity:  identity,
		logger:    logger,
		logCloser: logCloser,
		collector: collector,
		checker:   checker,
		tracker:   tracker.New(logger, collector),
		sampler:   metrics.NewSystemSampler(collector, logging.Component(logger, "metrics"), cfg.SystemMetricsInterval),
	}

	m.sampler.Start()

	if cfg.PrometheusEnabled {
		m.metricsServer = metrics.NewServer(cfg.PrometheusPort, collector, logging.Component(logger, "metrics"))
		if err := m.metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("failed to start metrics server")
		}
	}

	if cfg.HealthCheckEnabled {
		m.healthServer = health.NewServer(cfg.HealthCheckPort, checker, logging.Component(logger, "health"))
		if err := m.healthServer.Start(); err != nil {
			logger.Error().Err(err).Msg("failed to start health check server")
		}
	}

	logger.Info().
		Str("scraper", cfg.ScraperName).
		Str("version", cfg.ScraperVersion).
		Msg("scraping context initialized")

	return m, nil
}

// Logger returns the root identity-bound logger.
func (m *Monitor) Logger() zerolog.Logger { return m.logger }

// ComponentLogger derives a logger scoped to a named component.
func (m *Monitor) ComponentLogger(component string) zerolog.Logger {
	return logging.Component(m.logger, component)
}

// Metrics returns the metric collector.
func (m *Monitor) Metrics() *metrics.Collector { return m.collector }

// Health returns the health check registry.
func (m *Monitor) Health() *health.Checker { return m.checker }

// Tracker returns the operation tracker.
func (m *Monitor) Tracker() *tracker.Tracker { return m.tracker }

// ScrapeOperation runs fn as one tracked scraping operation.
func (m *Monitor) ScrapeOperation(op tracker.Operation, fn func(*tracker.Scope) error) error {
	return m.tracker.Track(op, fn)
}

// TrackRequest runs fn as one tracked HTTP page request.
func (m *Monitor) TrackRequest(url, method string, fn func(*tracker.Scope) error) error {
	return m.tracker.TrackRequest(url, method, fn)
}

// RecordItemsScraped records items produced outside a wrapped function.
func (m *Monitor) RecordItemsScraped(operation, itemType string, count int) {
	m.collector.RecordItemsScraped(operation, itemType, count)
	m.logger.Info().
		Str("operation", operation).
		Str("item_type", itemType).
		Int("count", count).
		Msg("items scraped")
}

// RecordRateLimit records a rate limiting delay applied before hitting url.
func (m *Monitor) RecordRateLimit(url string, delay time.Duration) {
	domain := tracker.URLAuthority(url)
	m.collector.RecordRateLimit(domain, delay.Seconds())
	m.logger.Warn().
		Str("url", url).
		Float64("delay_seconds", delay.Seconds()).
		Msg("rate limit applied")
}

// RecordProxyRotation records a proxy change. Reason defaults to
// "rotation".
func (m *Monitor) RecordProxyRotation(oldProxy, newProxy, reason string) {
	if reason == "" {
		reason = "rotation"
	}
	m.collector.RecordProxyRotation(reason)
	m.logger.Info().
		Str("old_proxy", oldProxy).
		Str("new_proxy", newProxy).
		Str("reason", reason).
		Msg("proxy rotated")
}

// UpdateQueueSize sets the current size of a named scraping queue.
func (m *Monitor) UpdateQueueSize(queueType string, size int) {
	m.collector.UpdateQueueSize(queueType, size)
}

// AddHealthCheck registers a custom health check.
func (m *Monitor) AddHealthCheck(name string, probe health.CheckFunc, description string) {
	m.checker.Register(name, probe, description)
}

// RemoveHealthCheck removes a health check by name.
func (m *Monitor) RemoveHealthCheck(name string) {
	m.checker.Deregister(name)
}

// HealthReport runs all checks and returns the aggregated report.
func (m *Monitor) HealthReport() health.Report {
	return m.checker.Run()
}

// Shutdown stops the background sampler and the HTTP servers and releases
// the log file sink. Idempotent: the second and later calls return nil
// without touching anything, and shutdown never blocks on a server that
// was not started.
func (m *Monitor) Shutdown(ctx context.Context) error {
	var err error
	m.shutdownOnce.Do(func() {
		m.logger.Info().Msg("shutting down scraping context")

		m.sampler.Stop()

		if m.metricsServer != nil {
			if stopErr := m.metricsServer.Stop(ctx); stopErr != nil {
				err = stopErr
			}
		}
		if m.healthServer != nil {
			if stopErr := m.healthServer.Stop(ctx); stopErr != nil && err == nil {
				err = stopErr
			}
		}

		if closeErr := m.logCloser.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}
