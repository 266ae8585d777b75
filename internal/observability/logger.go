// Package observability provides structured logging helpers for Murshid.
//
// It wraps log/slog with turn ID propagation so that every log line emitted
// while handling one inbound message carries the turn context.
package observability

import (
	"context"
	"log/slog"
	"os"

	"murshid/common/trace"
)

// Setup configures the global slog logger according to the provided level and
// format strings (e.g. level="info", format="json").
func Setup(level, format string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithTurn returns a child logger that always includes the turn_id from ctx.
func WithTurn(ctx context.Context) *slog.Logger {
	turnID := trace.FromContext(ctx)
	if turnID == "" {
		return slog.Default()
	}
	return slog.With("turn_id", turnID)
}
