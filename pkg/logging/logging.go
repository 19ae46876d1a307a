// Package logging configures structured JSON logging for msgserve.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnv is the environment variable controlling the minimum log level.
// Recognised values: debug, info, warn, error. Anything else means info.
const LevelEnv = "MSGSERVE_LOG_LEVEL"

// KeyComponent is the attribute key identifying the emitting component.
const KeyComponent = "component"

// New creates a JSON logger on stdout with the level taken from LevelEnv.
func New() *slog.Logger {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a JSON logger on the given writer with the level
// taken from LevelEnv.
func NewWithWriter(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

// WithComponent returns a logger tagged with the given component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return l.With(slog.String(KeyComponent, component))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(LevelEnv)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
