package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrapewatch/scrapewatch/internal/config"
)

// New creates the root scraper logger with identity labels bound to every
// record. The returned closer releases the optional log file sink and is a
// no-op otherwise.
func New(cfg config.Config) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	var console io.Writer = os.Stdout
	if cfg.LogFormat == "standard" {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	writer := console
	closer := io.Closer(nopCloser{})
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
		}
		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := NewWithWriter(cfg, writer)
	return logger, closer, nil
}

// NewWithWriter builds the identity-bound logger on an explicit writer.
// Used by New and by tests that capture output.
func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
	logCtx := zerolog.New(w).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("scraper_name", cfg.ScraperName).
		Str("scraper_version", cfg.ScraperVersion).
		Str("environment", cfg.Environment)

	for _, key := range sortedKeys(cfg.CustomLabels) {
		logCtx = logCtx.Str(key, cfg.CustomLabels[key])
	}

	return logCtx.Logger()
}

// Component derives a child logger scoped to a named component.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// ParseLevel maps the configured level name to a zerolog level,
// defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
