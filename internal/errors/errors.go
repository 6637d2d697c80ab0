package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Sentinel errors for common scraping failures
var (
	// ErrRateLimited indicates the target throttled the scraper
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates a fetch or parse timed out
	ErrTimeout = errors.New("timeout")

	// ErrBlocked indicates the target refused the scraper (403, captcha, bot wall)
	ErrBlocked = errors.New("blocked")

	// ErrNotFound indicates the target page does not exist
	ErrNotFound = errors.New("not found")

	// ErrParse indicates the fetched content could not be parsed
	ErrParse = errors.New("parse error")
)

// kindError carries a stable low-cardinality kind label alongside the cause.
type kindError struct {
	kind  string
	cause error
}

func (e *kindError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.kind, e.cause)
	}
	return e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}

// WithKind wraps an error with an explicit kind label for metrics and logs.
func WithKind(kind string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: err}
}

// Kindf creates a new error with an explicit kind label and formatted message.
func Kindf(kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, cause: fmt.Errorf(format, args...)}
}

// Kind derives the error-kind label recorded on failure metrics and log
// events. Explicit kinds win, then the sentinel taxonomy, then the dynamic
// type name of the outermost error.
func Kind(err error) string {
	if err == nil {
		return ""
	}

	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}

	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrBlocked):
		return "blocked"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrParse):
		return "parse_error"
	}

	return typeName(err)
}

// typeName reduces an error's dynamic type to a label-safe name, e.g.
// *url.Error -> "url.Error", errors.errorString -> "errorString".
func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.String()
	name = strings.TrimPrefix(name, "errors.")
	name = strings.TrimPrefix(name, "fmt.")
	return name
}

// IsRetryable reports whether a failure is worth retrying. Rate limits and
// timeouts are; blocks, missing pages, and parse failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) {
		return true
	}

	if errors.Is(err, ErrBlocked) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrParse) {
		return false
	}

	// Default to non-retryable for unknown errors
	return false
}
