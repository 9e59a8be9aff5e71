package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerMu sync.RWMutex
	logger   = log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
)

// Setup updates the process-global logger settings.
// Call this early (from main) with the configured level: debug, info, warn, error.
func Setup(level string) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
		logger.SetReportCaller(true)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	// Always include timestamps for operational runs.
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.RFC3339)
}

// L returns the shared logger instance. Prefer the package helpers (`Info`, `Warn`, ...)
// unless you need advanced APIs like `.With(...)`.
func L() *log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Component returns a sub-logger with a fixed prefix, e.g. "worker" or "ffmpeg".
func Component(name string) *log.Logger {
	return L().WithPrefix(name)
}

func Debug(msg any, keyvals ...any) { L().Debug(msg, keyvals...) }
func Info(msg any, keyvals ...any)  { L().Info(msg, keyvals...) }
func Warn(msg any, keyvals ...any)  { L().Warn(msg, keyvals...) }
func Error(msg any, keyvals ...any) { L().Error(msg, keyvals...) }
func Fatal(msg any, keyvals ...any) { L().Fatal(msg, keyvals...) }
