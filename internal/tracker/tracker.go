// Package tracker implements the operation tracking primitive shared by the
// scoped-block and wrapped-function forms of instrumentation. One tracked
// invocation emits exactly one started log event, exactly one terminal log
// event, and exactly one matching pair of metric updates, no matter how the
// unit of work terminates. The tracker observes failures and re-signals
// them to the caller unchanged; it never swallows them.
package tracker

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scrapewatch/scrapewatch/internal/errors"
	"github.com/scrapewatch/scrapewatch/internal/metrics"
)

// UnknownAuthority is recorded as the url_domain label when the URL is
// absent or unparseable.
const UnknownAuthority = "unknown"

// Operation describes one tracked unit of scraping work.
type Operation struct {
	Name     string
	URL      string
	ItemType string // defaults to "item"
	Fields   map[string]interface{}
}

// Scope is the handle passed to a tracked unit of work. It exposes the
// operation-bound logger, the metric collector, and the start time so the
// unit of work can log and measure sub-steps with the same context.
type Scope struct {
	logger    zerolog.Logger
	collector *metrics.Collector
	started   time.Time
}

// Logger returns the logger bound with the operation context.
func (s *Scope) Logger() *zerolog.Logger { return &s.logger }

// Metrics returns the metric collector.
func (s *Scope) Metrics() *metrics.Collector { return s.collector }

// Started returns when the operation began.
func (s *Scope) Started() time.Time { return s.started }

// Tracker fans tracked operations out to the log sink and the metric sink.
// Trackers are independent: nesting one tracked operation inside another
// records each layer separately.
type Tracker struct {
	logger    zerolog.Logger
	collector *metrics.Collector
}

// New creates a tracker on the given logger and collector.
func New(logger zerolog.Logger, collector *metrics.Collector) *Tracker {
	return &Tracker{logger: logger, collector: collector}
}

// Track runs fn as one tracked scraping operation. On normal return the
// success event and metric pair are recorded; on error (or panic) the
// failure event, metric pair, and error counter are recorded and the
// failure is re-signaled unchanged. Duration comes from the monotonic
// clock.
func (t *Tracker) Track(op Operation, fn func(*Scope) error) error {
	if op.ItemType == "" {
		op.ItemType = "item"
	}
	authority := URLAuthority(op.URL)

	logCtx := t.logger.With().
		Str("operation", op.Name).
		Str("url", op.URL).
		Str("url_domain", authority).
		Str("operation_id", uuid.NewString())
	for key, value := range op.Fields {
		logCtx = logCtx.Interface(key, value)
	}
	opLogger := logCtx.Logger()

	opLogger.Info().Msg("scraping operation started")
	start := time.Now()
	scope := &Scope{logger: opLogger, collector: t.collector, started: start}

	finished := false
	finish := func(err error) {
		if finished {
			return
		}
		finished = true
		duration := time.Since(start).Seconds()

		if err != nil {
			kind := errors.Kind(err)
			opLogger.Error().
				Str("error", err.Error()).
				Str("error_type", kind).
				Float64("duration_seconds", duration).
				Msg("scraping operation failed")
			t.collector.RecordScrapeRequest(op.Name, metrics.StatusFailed, authority)
			t.collector.RecordScrapeDuration(op.Name, authority, duration)
			t.collector.RecordError(kind, op.Name)
			return
		}

		opLogger.Info().
			Float64("duration_seconds", duration).
			Msg("scraping operation completed successfully")
		t.collector.RecordScrapeRequest(op.Name, metrics.StatusSuccess, authority)
		t.collector.RecordScrapeDuration(op.Name, authority, duration)
	}

	defer func() {
		if r := recover(); r != nil {
			finish(errors.Kindf("panic", "%v", r))
			panic(r)
		}
	}()

	err := fn(scope)
	finish(err)
	return err
}

// TrackRequest runs fn as one tracked HTTP page request, recording the
// request counter and response time histogram. A returned error (or panic)
// is counted as status 500 and re-signaled; on success 200 is assumed, the
// actual status belongs to the caller's own logging inside the scope.
func (t *Tracker) TrackRequest(rawURL, method string, fn func(*Scope) error) error {
	if method == "" {
		method = http.MethodGet
	}
	authority := URLAuthority(rawURL)

	reqLogger := t.logger.With().
		Str("url", rawURL).
		Str("url_domain", authority).
		Str("method", method).
		Logger()

	reqLogger.Debug().Msg("http request started")
	start := time.Now()
	scope := &Scope{logger: reqLogger, collector: t.collector, started: start}

	finished := false
	finish := func(err error) {
		if finished {
			return
		}
		finished = true
		duration := time.Since(start).Seconds()

		if err != nil {
			kind := errors.Kind(err)
			reqLogger.Error().
				Str("error", err.Error()).
				Str("error_type", kind).
				Float64("duration_seconds", duration).
				Msg("http request failed")
			t.collector.RecordHTTPRequest(method, "500", authority)
			t.collector.RecordHTTPResponseTime(method, authority, duration)
			t.collector.RecordError(kind, "http_request")
			return
		}

		t.collector.RecordHTTPRequest(method, "200", authority)
		t.collector.RecordHTTPResponseTime(method, authority, duration)
	}

	defer func() {
		if r := recover(); r != nil {
			finish(errors.Kindf("panic", "%v", r))
			panic(r)
		}
	}()

	err := fn(scope)
	finish(err)
	return err
}

// URLAuthority extracts the host[:port] portion of a URL for use as a
// low-cardinality label. Empty or unparseable URLs map to "unknown".
func URLAuthority(rawURL string) string {
	if rawURL == "" {
		return UnknownAuthority
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return UnknownAuthority
	}
	return parsed.Host
}
