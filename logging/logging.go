// Package logging sets up structured logging for the analysis pipeline.
// Output goes to stderr so reports written to stdout stay clean.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a slog logger at the given level, writing text to stderr.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Default returns an info-level logger.
func Default() *slog.Logger {
	return New(slog.LevelInfo)
}

// ParseLevel maps a config string to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
