// Package logger configures the application-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config represents logger configuration
type Config struct {
	// Level is one of debug, info, warn, error (defaults to info)
	Level string
	// Pretty enables human-readable console output
	Pretty bool
	// Output is the output writer (defaults to os.Stdout)
	Output io.Writer
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Configure sets up the global logger and returns it.
func Configure(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	writer := cfg.Output
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.Kitchen}
	}

	l := zerolog.New(writer).With().Timestamp().Str("service", "student-records").Logger()
	log.Logger = l
	return l
}
