package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scrapewatch/scrapewatch/internal/config"
)

// Outcome label values for the request counter
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Collector holds the fixed set of Prometheus instruments for a scraper.
// Identity labels are attached to every instrument as const labels, so each
// sample carries the same label set as the log records. Label name sets are
// fixed at registration; a mismatched recording call panics, which is the
// intended fail-loud behavior for label contract bugs.
type Collector struct {
	registry *prometheus.Registry

	scrapeRequests *prometheus.CounterVec
	scrapeDuration *prometheus.HistogramVec
	itemsScraped   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	systemCPU      prometheus.Gauge
	systemMemory   prometheus.Gauge
	rateLimitHits  *prometheus.CounterVec
	rateLimitDelay *prometheus.HistogramVec
	proxyRotations *prometheus.CounterVec
	queueSize      *prometheus.GaugeVec
}

// NewCollector creates the instrument set on a private registry. Each
// monitoring context owns its own registry so contexts never collide.
func NewCollector(identity config.Identity) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	base := prometheus.Labels(identity.Labels())

	return &Collector{
		registry: registry,

		scrapeRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_requests_total",
			Help:        "Total number of scraping requests",
			ConstLabels: base,
		}, []string{"operation", "status", "url_domain"}),

		scrapeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "scraper_duration_seconds",
			Help:        "Time spent on scraping operations",
			ConstLabels: base,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation", "url_domain"}),

		itemsScraped: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_items_scraped_total",
			Help:        "Total number of items scraped",
			ConstLabels: base,
		}, []string{"operation", "item_type"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_http_requests_total",
			Help:        "Total HTTP requests made",
			ConstLabels: base,
		}, []string{"method", "status_code", "url_domain"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "scraper_http_response_duration_seconds",
			Help:        "HTTP response time",
			ConstLabels: base,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "url_domain"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_errors_total",
			Help:        "Total number of errors",
			ConstLabels: base,
		}, []string{"error_type", "operation"}),

		systemCPU: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "scraper_system_cpu_usage_percent",
			Help:        "System CPU usage percentage",
			ConstLabels: base,
		}),

		systemMemory: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "scraper_system_memory_usage_bytes",
			Help:        "System memory usage in bytes",
			ConstLabels: base,
		}),

		rateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_rate_limit_delays_total",
			Help:        "Total number of rate limit delays",
			ConstLabels: base,
		}, []string{"url_domain"}),

		rateLimitDelay: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "scraper_rate_limit_delay_seconds",
			Help:        "Duration of rate limit delays",
			ConstLabels: base,
			Buckets:     prometheus.DefBuckets,
		}, []string{"url_domain"}),

		proxyRotations: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "scraper_proxy_rotations_total",
			Help:        "Total number of proxy rotations",
			ConstLabels: base,
		}, []string{"reason"}),

		queueSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "scraper_queue_size",
			Help:        "Current size of the scraping queue",
			ConstLabels: base,
		}, []string{"queue_type"}),
	}
}

// RecordScrapeRequest records the outcome of one scraping request.
func (c *Collector) RecordScrapeRequest(operation, status, urlDomain string) {
	c.scrapeRequests.WithLabelValues(operation, status, urlDomain).Inc()
}

// RecordScrapeDuration records the duration of one scraping operation.
func (c *Collector) RecordScrapeDuration(operation, urlDomain string, seconds float64) {
	c.scrapeDuration.WithLabelValues(operation, urlDomain).Observe(seconds)
}

// RecordItemsScraped records the number of items produced by an operation.
func (c *Collector) RecordItemsScraped(operation, itemType string, count int) {
	c.itemsScraped.WithLabelValues(operation, itemType).Add(float64(count))
}

// RecordHTTPRequest records one HTTP request by method and status code.
func (c *Collector) RecordHTTPRequest(method, statusCode, urlDomain string) {
	c.httpRequests.WithLabelValues(method, statusCode, urlDomain).Inc()
}

// RecordHTTPResponseTime records the response time of one HTTP request.
func (c *Collector) RecordHTTPResponseTime(method, urlDomain string, seconds float64) {
	c.httpDuration.WithLabelValues(method, urlDomain).Observe(seconds)
}

// RecordError records a failure by error kind and operation.
func (c *Collector) RecordError(errorType, operation string) {
	c.errorsTotal.WithLabelValues(errorType, operation).Inc()
}

// RecordRateLimit records one rate limit delay against a domain.
func (c *Collector) RecordRateLimit(urlDomain string, delaySeconds float64) {
	c.rateLimitHits.WithLabelValues(urlDomain).Inc()
	c.rateLimitDelay.WithLabelValues(urlDomain).Observe(delaySeconds)
}

// RecordProxyRotation records one proxy rotation.
func (c *Collector) RecordProxyRotation(reason string) {
	c.proxyRotations.WithLabelValues(reason).Inc()
}

// UpdateQueueSize sets the current size of a named queue.
func (c *Collector) UpdateQueueSize(queueType string, size int) {
	c.queueSize.WithLabelValues(queueType).Set(float64(size))
}

// SetSystemCPU sets the CPU utilization gauge.
func (c *Collector) SetSystemCPU(percent float64) {
	c.systemCPU.Set(percent)
}

// SetSystemMemory sets the memory usage gauge.
func (c *Collector) SetSystemMemory(bytes float64) {
	c.systemMemory.Set(bytes)
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the text exposition handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
