// Command scrapewatch runs a small demonstration scraper wired through the
// monitoring facade: tracked operations, page requests, item counting, a
// custom health check, and the metrics and health endpoints.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scrapewatch/scrapewatch/internal/config"
	"github.com/scrapewatch/scrapewatch/internal/monitor"
	"github.com/scrapewatch/scrapewatch/internal/tracker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ScraperName == "default_scraper" {
		cfg.ScraperName = "example_scraper"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mon, err := monitor.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create monitoring context: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = mon.Shutdown(shutdownCtx)
	}()

	logger := mon.ComponentLogger("main")
	logger.Info().Msg("starting scraper example")

	client := &http.Client{Timeout: 10 * time.Second}

	// The queue here is the remaining URL list; real scrapers report their
	// scheduler depth the same way.
	urls := []string{
		"https://httpbin.org/json",
		"https://httpbin.org/user-agent",
		"https://httpbin.org/headers",
	}

	mon.AddHealthCheck("target_reachable", func() (bool, error) {
		resp, err := client.Head("https://httpbin.org")
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()
		return resp.StatusCode < 500, nil
	}, "Check if the scrape target responds")

	fetchPage := tracker.Wrap(mon.Tracker(), "fetch_page",
		func(ctx context.Context, url string) ([]byte, error) {
			return fetch(ctx, client, url)
		},
		tracker.WithItemType[[]byte]("page"),
		tracker.WithItemCounter(func([]byte) int { return 1 }),
	)

	for i, url := range urls {
		mon.UpdateQueueSize("pending", len(urls)-i)

		if err := ctx.Err(); err != nil {
			logger.Info().Msg("interrupted, stopping scrape loop")
			break
		}

		err := mon.ScrapeOperation(tracker.Operation{
			Name:     "page_scrape",
			URL:      url,
			ItemType: "json_data",
		}, func(scope *tracker.Scope) error {
			var body []byte
			reqErr := mon.TrackRequest(url, http.MethodGet, func(*tracker.Scope) error {
				var err error
				body, err = fetchPage(ctx, url)
				return err
			})
			if reqErr != nil {
				return reqErr
			}

			scope.Logger().Info().Int("bytes", len(body)).Msg("page scraped")
			mon.RecordItemsScraped("page_scrape", "json_data", 1)
			return nil
		})
		if err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("page scrape failed, continuing")
		}

		// Be polite between pages and make the delay visible in metrics.
		delay := 500 * time.Millisecond
		mon.RecordRateLimit(url, delay)
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
	}

	mon.UpdateQueueSize("pending", 0)

	report := mon.HealthReport()
	logger.Info().
		Str("status", string(report.Status)).
		Int("checks", len(report.Checks)).
		Msg("final health report")

	logger.Info().Msg("scraper example finished")
	return nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %s fetching %s", resp.Status, strings.TrimSpace(url))
	}

	return io.ReadAll(resp.Body)
}
