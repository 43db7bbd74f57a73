package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. Feature code derives
// component-scoped loggers with log.With("component", ...).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
