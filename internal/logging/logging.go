// Package logging builds the application logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/hvaldez/taskmovil/internal/model"
)

// New creates a slog.Logger from the logging config. When a file is
// configured, logs go there; otherwise they go to stderr. The returned
// closer is nil when there is nothing to close.
func New(cfg model.LogConfig) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closer = f
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      parseLevel(cfg.Level),
		TimeFormat: time.Kitchen,
	})

	return slog.New(handler), closer, nil
}

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch level {
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
