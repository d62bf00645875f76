// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a slog.Level. Unknown values
// report ok=false and yield INFO.
func ParseLevel(logLevelStr string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(logLevelStr)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates a logger that writes to out and, when logFilePath is set, to
// that file as well. stdout is left to the resolved address, so callers
// normally pass os.Stderr.
func New(out io.Writer, logFilePath string, logLevelStr string) (*slog.Logger, func(), error) {
	closeFn := func() {}
	writer := out

	if logFilePath != "" {
		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, closeFn, fmt.Errorf("open log file %s: %w", logFilePath, err)
		}
		writer = io.MultiWriter(out, logFile)
		closeFn = func() { _ = logFile.Close() }
	}

	level, ok := ParseLevel(logLevelStr)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006/01/02 15:04:05")) // Matches log.LstdFlags format
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(writer, opts)
	logger := slog.New(handler)
	if !ok {
		logger.Warn("Invalid log level specified, defaulting to INFO.", "provided_level", logLevelStr, "default_level", "INFO")
	}

	return logger, closeFn, nil
}
