package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New initializes a JSON slog.Logger for the named service.
// Level can be debug, info, warn, error; anything else falls back to info.
func New(serviceName, level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler).With("service", serviceName)
}
