// Package logging builds the daemon's structured logger. It wraps
// log/slog with its own handler and custom level names rather than
// reaching for a third-party logging library.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"telemetry-collector/internal/config"
)

// EventLevel is a custom slog level used for the "EVENT" category, one
// of the daemon's categorical log tags (INFO|WARN|ERROR|DEBUG|EVENT|OK).
// It sits between Info and Warn so it is visible by default without
// being mistaken for a problem.
const EventLevel = slog.Level(2)

// OKLevel tags a successful, noteworthy outcome (e.g. auth accepted,
// event persisted) distinctly from routine Info chatter.
const OKLevel = slog.Level(1)

var levelNames = map[slog.Leveler]string{
	OKLevel:    "OK",
	EventLevel: "EVENT",
}

// New builds the root logger per cfg.Logging: text or JSON handler,
// at the configured level, with the daemon's custom level names wired
// in so EVENT/OK lines render with their own tag instead of
// "INFO+2"/"INFO+1".
// When cfg.FilePath is set, log lines are teed to a self-rotating file
// (see FileWriter) in addition to stdout; the returned io.Closer must
// be closed on shutdown to flush and release that file, and is nil
// when no file sink was configured.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					if name, ok := levelNames[lvl]; ok {
						a.Value = slog.StringValue(name)
					}
				}
			}
			return a
		},
	}

	var out io.Writer = os.Stdout
	var closer io.Closer

	if cfg.FilePath != "" {
		fw, err := NewFileWriter(FileWriterConfig{FilePath: cfg.FilePath})
		if err == nil {
			out = io.MultiWriter(os.Stdout, fw)
			closer = fw
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closer
}

// Event logs at the EVENT level: a structured eventProcessed signal,
// observability only.
func Event(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), EventLevel, msg, args...)
}

// OK logs at the OK level for a noteworthy success.
func OK(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), OKLevel, msg, args...)
}
