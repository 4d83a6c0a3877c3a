// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.SetupWithLevel(cfg.LogLevel)
//
// Colors are only written to stdout and stderr; set NO_COLOR to turn them off.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// SetupWithLevel configures colored logging on stderr at the given level
// and installs it as the default logger.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(New(os.Stderr, level))
}

// New returns a tint logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	_, noColor := os.LookupEnv("NO_COLOR")
	if w != os.Stderr && w != os.Stdout {
		noColor = true
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level <= slog.LevelDebug,
		NoColor:    noColor,
	}))
}
