package toastlog

import (
	"time"
)

// Global instance for package-level functions
var defaultLogger = NewLogger()

// Default returns the process-wide logger used by the package-level functions
func Default() *Logger {
	return defaultLogger
}

// Init applies cfg to the default logger and starts it
func Init(cfg *Config) error {
	if err := defaultLogger.ApplyConfig(cfg); err != nil {
		return err
	}
	return defaultLogger.Start()
}

// Shutdown gracefully closes the default logger
func Shutdown(timeout ...time.Duration) error {
	return defaultLogger.Shutdown(timeout...)
}

// Flush waits for the default logger to write queued records
func Flush(timeout time.Duration) error {
	return defaultLogger.Flush(timeout)
}

// Debug logs a message at debug level
func Debug(args ...any) {
	defaultLogger.Debug(args...)
}

// Info logs a message at info level
func Info(args ...any) {
	defaultLogger.Info(args...)
}

// Warn logs a message at warning level
func Warn(args ...any) {
	defaultLogger.Warn(args...)
}

// Error is the process-wide error-reporting function
func Error(args ...any) {
	defaultLogger.Error(args...)
}
