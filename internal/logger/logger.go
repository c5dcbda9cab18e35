// Package logger provides the daemon-wide structured logger shared by
// every layer from the PTY host up through the request router, built
// on log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Log is the process-wide logger. It is slog's default logger until
// Init replaces it.
var Log = slog.Default()

// Init configures Log to write text-formatted records to stdout, and
// additionally to logFile when non-empty.
func Init(level string, logFile string) error {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelDebug
	}

	writers := []io.Writer{os.Stdout}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Shorten time format.
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05"))
			}
			return a
		},
	})

	Log = slog.New(handler)
	slog.SetDefault(Log)
	return nil
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { Log.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { Log.Error(msg, args...) }

// WithSession returns a logger pre-bound with session_id, the field
// every session lifecycle log line and session-scoped request log
// line carries.
func WithSession(sessionID string) *slog.Logger {
	return Log.With("session_id", sessionID)
}

// WithRequest returns a logger pre-bound with the RPC method name, for
// the router and transport layer to attach around one request's
// handling.
func WithRequest(method string) *slog.Logger {
	return Log.With("method", method)
}
