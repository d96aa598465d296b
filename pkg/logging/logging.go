// Package logging builds the slog loggers used across stash.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a log level
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format is the output format of a handler
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration
type Config struct {
	Level     Level
	Format    Format
	Output    io.Writer // defaults to os.Stderr
	AddSource bool
}

// DefaultConfig logs text at info level to stderr
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a logger from cfg
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// Nop returns a logger that discards everything
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses debug, info, warn(ing) or error in any case. Anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses text or json in any case. Anything else is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
