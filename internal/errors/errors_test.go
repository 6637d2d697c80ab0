package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSentinels(t *testing.T) {
	tests := []struct {
		err  error
		kind string
	}{
		{ErrRateLimited, "rate_limited"},
		{ErrTimeout, "timeout"},
		{ErrBlocked, "blocked"},
		{ErrNotFound, "not_found"},
		{ErrParse, "parse_error"},
		{fmt.Errorf("fetch failed: %w", ErrTimeout), "timeout"},
		{fmt.Errorf("selector missing: %w", ErrParse), "parse_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, Kind(tt.err), "for error %v", tt.err)
	}
}

func TestKindExplicit(t *testing.T) {
	err := WithKind("captcha", errors.New("challenge page returned"))
	assert.Equal(t, "captcha", Kind(err))

	// explicit kind wins over the sentinel taxonomy
	err = WithKind("session_expired", fmt.Errorf("relogin: %w", ErrBlocked))
	assert.Equal(t, "session_expired", Kind(err))

	err = Kindf("panic", "%v", "boom")
	assert.Equal(t, "panic", Kind(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestKindFallsBackToTypeName(t *testing.T) {
	assert.Equal(t, "errorString", Kind(errors.New("plain")))

	type customError struct{ error }
	assert.NotEmpty(t, Kind(customError{errors.New("x")}))
}

func TestKindNil(t *testing.T) {
	assert.Empty(t, Kind(nil))
	assert.Nil(t, WithKind("any", nil))
}

func TestWithKindPreservesCause(t *testing.T) {
	cause := errors.New("underlying")
	err := WithKind("captcha", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "captcha")
	assert.Contains(t, err.Error(), "underlying")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrTimeout)))
	assert.False(t, IsRetryable(ErrBlocked))
	assert.False(t, IsRetryable(ErrNotFound))
	assert.False(t, IsRetryable(ErrParse))
	assert.False(t, IsRetryable(errors.New("unknown")))
	assert.False(t, IsRetryable(nil))
}
