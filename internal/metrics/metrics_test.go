package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapewatch/scrapewatch/internal/config"
)

func testIdentity() config.Identity {
	return config.Identity{
		Name:        "test_scraper",
		Version:     "1.0.0",
		Environment: "test",
		Custom:      map[string]string{"team": "data"},
	}
}

func TestRecordScrapeRequest(t *testing.T) {
	c := NewCollector(testIdentity())

	c.RecordScrapeRequest("list_page", StatusSuccess, "example.com")
	c.RecordScrapeRequest("list_page", StatusSuccess, "example.com")
	c.RecordScrapeRequest("list_page", StatusFailed, "example.com")

	success := c.scrapeRequests.WithLabelValues("list_page", StatusSuccess, "example.com")
	failed := c.scrapeRequests.WithLabelValues("list_page", StatusFailed, "example.com")
	assert.Equal(t, 2.0, testutil.ToFloat64(success))
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}

func TestRecordCountersAndGauges(t *testing.T) {
	c := NewCollector(testIdentity())

	c.RecordItemsScraped("list_page", "product", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.itemsScraped.WithLabelValues("list_page", "product")))

	c.RecordHTTPRequest("GET", "200", "example.com")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "200", "example.com")))

	c.RecordError("timeout", "list_page")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("timeout", "list_page")))

	c.RecordProxyRotation("ban")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.proxyRotations.WithLabelValues("ban")))

	c.UpdateQueueSize("pending", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(c.queueSize.WithLabelValues("pending")))

	c.SetSystemCPU(55.5)
	assert.Equal(t, 55.5, testutil.ToFloat64(c.systemCPU))

	c.SetSystemMemory(1024)
	assert.Equal(t, 1024.0, testutil.ToFloat64(c.systemMemory))
}

func TestRecordRateLimit(t *testing.T) {
	c := NewCollector(testIdentity())

	c.RecordRateLimit("example.com", 1.5)
	c.RecordRateLimit("example.com", 0.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rateLimitHits.WithLabelValues("example.com")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.rateLimitDelay, "scraper_rate_limit_delay_seconds"))
}

func TestIdentityConstLabelsOnEverySample(t *testing.T) {
	c := NewCollector(testIdentity())

	c.RecordScrapeRequest("op", StatusSuccess, "example.com")
	c.RecordItemsScraped("op", "item", 1)
	c.SetSystemCPU(10)

	families, err := c.registry.Gather()
	require.NoError(t, err)

	checked := 0
	for _, family := range families {
		switch family.GetName() {
		case "scraper_requests_total", "scraper_items_scraped_total", "scraper_system_cpu_usage_percent":
			for _, metric := range family.GetMetric() {
				labels := map[string]string{}
				for _, pair := range metric.GetLabel() {
					labels[pair.GetName()] = pair.GetValue()
				}
				assert.Equal(t, "test_scraper", labels["scraper_name"])
				assert.Equal(t, "1.0.0", labels["scraper_version"])
				assert.Equal(t, "test", labels["environment"])
				assert.Equal(t, "data", labels["team"])
				checked++
			}
		}
	}
	assert.Equal(t, 3, checked)
}

func TestSeparateCollectorsDoNotCollide(t *testing.T) {
	a := NewCollector(testIdentity())
	b := NewCollector(testIdentity())

	a.RecordScrapeRequest("op", StatusSuccess, "example.com")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.scrapeRequests.WithLabelValues("op", StatusSuccess, "example.com")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.scrapeRequests.WithLabelValues("op", StatusSuccess, "example.com")))
}

func TestHandlerExposition(t *testing.T) {
	c := NewCollector(testIdentity())
	c.RecordScrapeRequest("op", StatusSuccess, "example.com")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "scraper_requests_total")
	assert.Contains(t, body, `scraper_name="test_scraper"`)
	assert.Contains(t, body, "go_goroutines")
}
