// Package logging builds the zerolog logger used across appupdate and carries
// it through context.Context.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	// File, when set, receives a JSON copy of every record via a rotating writer.
	File string
	// Out is the primary sink. Defaults to os.Stderr.
	Out io.Writer
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new zerolog logger with the given configuration.
// The returned closer releases the log file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer) {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var primary io.Writer = out
	if cfg.Format != "json" {
		primary = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	var closer io.Closer = nopCloser{}
	writer := primary
	if cfg.File != "" {
		rotator := newRotator(cfg.File)
		closer = rotator
		writer = zerolog.MultiLevelWriter(primary, rotator)
	}

	return zerolog.New(writer).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger(), closer
}

// newRotator returns the lumberjack writer backing --log-file.
func newRotator(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
