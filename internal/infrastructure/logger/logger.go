package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/jan-imagegen/pkg/config"
)

const serviceName = "jan-imagegen"

var (
	mu           sync.RWMutex
	globalLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// GetLogger returns the process-wide logger.
func GetLogger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// New creates a zerolog.Logger from the logging config and installs it as the
// process-wide logger. Output goes to stderr so stdout stays clean for command output.
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg *config.Config, out io.Writer) zerolog.Logger {
	level := parseLevel(cfg.Logging.Level)

	var base zerolog.Logger
	switch strings.ToLower(cfg.Logging.Format) {
	case "json":
		base = zerolog.New(out)
	default:
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	}

	logger := base.
		With().
		Timestamp().
		Str("service", serviceName).
		Str("environment", cfg.Meta.Environment).
		Logger().
		Level(level)

	mu.Lock()
	globalLogger = logger
	mu.Unlock()

	return logger
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
