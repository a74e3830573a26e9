// Package logging configures structured logging: colored text through tint
// for terminals, or JSON for log collectors.
//
// Usage:
//
//	logger := logging.Setup(logging.Options{Level: "debug"})  // also sets slog.Default
//	logger := logging.New(w, logging.Options{Format: "json"}) // explicit writer
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Options selects the level and output format. Zero values mean info and text.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json

	// NoColor disables ANSI colors in text output.
	NoColor bool
}

// Setup builds a logger writing to stderr and installs it as slog's default.
func Setup(opts Options) *slog.Logger {
	logger := New(os.Stderr, opts)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    opts.NoColor,
	}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
