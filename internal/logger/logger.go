package logger

import (
	"os"
	"strings"

	"log/slog"
)

// New builds the process logger. Production emits JSON lines for the log
// pipeline; every other environment gets the text handler so local output
// stays readable.
func New(service, environment string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(environment), "production") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", service)
}
