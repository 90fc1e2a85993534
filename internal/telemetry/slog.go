package telemetry

import (
	"log/slog"
	"os"
	"strings"

	"github.com/docshost/docshost/internal/config"
)

// SetupLogger installs the process-wide slog default from the logging config
// section. JSON output is meant for production deployments; any other format
// falls back to the human-readable text handler. Source locations are only
// attached at debug level since they are costly to resolve on every record.
func SetupLogger(cfg config.LoggingConfig) {
	level := ParseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logging configured", "format", cfg.Format, "level", level.String())
}

// ParseLevel maps a config level string to a slog.Level, defaulting to info
// for unknown values so a typo in config never silences the logs.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
