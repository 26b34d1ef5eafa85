package toastlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the core struct that encapsulates all logger functionality
type Logger struct {
	currentConfig atomic.Value // stores *Config
	state         State
	initMu        sync.Mutex
	customWriter  atomic.Value // stores *sink, overrides console target when set
	observers     observerRegistry
}

// NewLogger creates a new Logger instance with default settings
func NewLogger() *Logger {
	l := &Logger{}
	l.currentConfig.Store(DefaultConfig())

	l.state.ProcessorExited.Store(true)
	l.state.CurrentFile.Store((*os.File)(nil))
	l.state.ConsoleWriter.Store(&sink{w: io.Discard})
	l.customWriter.Store(&sink{})

	// Closed channel until Start, sends are recovered and counted as drops
	initialChan := make(chan logRecord)
	close(initialChan)
	l.state.ActiveLogChannel.Store(initialChan)

	l.state.flushRequestChan = make(chan chan struct{}, 1)

	return l
}

// ApplyConfig validates and applies a configuration
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	return l.applyConfig(cfg.Clone())
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.getConfig().Clone()
}

// SetOutput replaces the console writer, nil restores the configured console target
func (l *Logger) SetOutput(w io.Writer) {
	l.customWriter.Store(&sink{w: w})
	l.initMu.Lock()
	l.state.ConsoleWriter.Store(l.consoleSink(l.getConfig()))
	l.initMu.Unlock()
}

// Start begins log processing. Safe to call multiple times
func (l *Logger) Start() error {
	if !l.state.IsInitialized.Load() {
		return fmtErrorf("logger not initialized, call ApplyConfig first")
	}

	if l.state.Started.CompareAndSwap(false, true) {
		cfg := l.getConfig()
		ch := make(chan logRecord, cfg.BufferSize)
		l.state.ProcessorExited.Store(false)
		l.state.ActiveLogChannel.Store(ch)
		go l.processLogs(ch, cfg)
	}
	return nil
}

// Stop halts log processing, draining queued records. Can be restarted with Start
func (l *Logger) Stop(timeout ...time.Duration) error {
	if !l.state.Started.CompareAndSwap(true, false) {
		return nil
	}

	effectiveTimeout := l.effectiveTimeout(timeout)

	ch := l.getCurrentLogChannel()
	closedChan := make(chan logRecord)
	close(closedChan)
	l.state.ActiveLogChannel.Store(closedChan)
	close(ch)

	deadline := time.Now().Add(effectiveTimeout)
	for time.Now().Before(deadline) {
		if l.state.ProcessorExited.Load() {
			return nil
		}
		time.Sleep(minWaitTime)
	}

	if !l.state.ProcessorExited.Load() {
		return fmtErrorf("processor did not exit within timeout (%v)", effectiveTimeout)
	}
	return nil
}

// Shutdown stops processing and closes the log file
// Observers stay registered but are no longer invoked
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}
	l.state.LoggerDisabled.Store(true)

	if !l.state.IsInitialized.Load() {
		return nil
	}

	finalErr := l.Stop(timeout...)
	l.state.IsInitialized.Store(false)

	if f, ok := l.state.CurrentFile.Load().(*os.File); ok && f != nil {
		if err := f.Sync(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to sync log file '%s' during shutdown: %w", f.Name(), err))
		}
		if err := f.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close log file '%s' during shutdown: %w", f.Name(), err))
		}
		l.state.CurrentFile.Store((*os.File)(nil))
	}

	return finalErr
}

// Flush waits until every record queued before the call has been written and synced
func (l *Logger) Flush(timeout time.Duration) error {
	l.state.flushMutex.Lock()
	defer l.state.flushMutex.Unlock()

	if !l.state.IsInitialized.Load() || l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger not initialized or already shut down")
	}
	if !l.state.Started.Load() {
		return fmtErrorf("logger not started")
	}

	confirmChan := make(chan struct{})
	select {
	case l.state.flushRequestChan <- confirmChan:
	case <-time.After(timeout):
		return fmtErrorf("failed to send flush request to processor within %v", timeout)
	}

	select {
	case <-confirmChan:
		return nil
	case <-time.After(timeout):
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// Stats counts records written by the processor and records dropped but not yet reported
type Stats struct {
	Processed uint64
	Dropped   uint64
}

// Stats returns a snapshot of the logger counters
func (l *Logger) Stats() Stats {
	return Stats{
		Processed: l.state.TotalLogsProcessed.Load(),
		Dropped:   l.state.DroppedLogs.Load(),
	}
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.log(l.getFlags(), LevelDebug, l.getConfig().TraceDepth, args...)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.log(l.getFlags(), LevelInfo, l.getConfig().TraceDepth, args...)
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	l.log(l.getFlags(), LevelWarn, l.getConfig().TraceDepth, args...)
}

// Error logs a message at error level.
// This is the error-reporting entry point observed by the notification bridge.
func (l *Logger) Error(args ...any) {
	l.log(l.getFlags(), LevelError, l.getConfig().TraceDepth, args...)
}

// ErrorTrace logs an error message with a function call trace of the given depth
func (l *Logger) ErrorTrace(depth int, args ...any) {
	l.log(l.getFlags(), LevelError, int64(depth), args...)
}

// Write outputs args as space separated text with no metadata or trailing newline
func (l *Logger) Write(args ...any) {
	l.log(FlagRaw, LevelInfo, 0, args...)
}

// Writer returns an io.Writer that logs each write as one record at level
// Useful for redirecting the standard library log package
func (l *Logger) Writer(level int64) io.Writer {
	return &levelWriter{logger: l, level: level}
}

type levelWriter struct {
	logger *Logger
	level  int64
}

func (w *levelWriter) Write(p []byte) (int, error) {
	w.logger.log(w.logger.getFlags(), w.level, 0, strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}

// getConfig returns the current configuration (thread-safe)
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}

func (l *Logger) effectiveTimeout(timeout []time.Duration) time.Duration {
	if len(timeout) > 0 {
		return timeout[0]
	}
	return 2 * time.Duration(l.getConfig().FlushIntervalMs) * time.Millisecond
}

// consoleSink resolves the console writer, assuming initMu is held
func (l *Logger) consoleSink(cfg *Config) *sink {
	if custom := l.customWriter.Load().(*sink); custom.w != nil {
		return custom
	}
	if !cfg.EnableConsole {
		return &sink{w: io.Discard}
	}
	if cfg.ConsoleTarget == "stdout" {
		return &sink{w: os.Stdout}
	}
	return &sink{w: os.Stderr}
}

// applyConfig is the internal implementation for applying configuration, assuming initMu is held
func (l *Logger) applyConfig(cfg *Config) error {
	oldCfg := l.getConfig()
	wasInitialized := l.state.IsInitialized.Load()
	needsRestart := wasInitialized && l.state.Started.Load() && configRequiresRestart(oldCfg, cfg)

	if needsRestart {
		if err := l.Stop(); err != nil {
			return fmtErrorf("failed to stop processor for restart: %w", err)
		}
	}

	currentFile, _ := l.state.CurrentFile.Load().(*os.File)
	needsNewFile := currentFile == nil || !wasInitialized ||
		oldCfg.Directory != cfg.Directory ||
		oldCfg.Name != cfg.Name ||
		oldCfg.Extension != cfg.Extension

	switch {
	case !cfg.EnableFile:
		if currentFile != nil {
			_ = currentFile.Sync()
			if err := currentFile.Close(); err != nil {
				l.internalLog("warning - failed to close log file during disable: %v\n", err)
			}
		}
		l.state.CurrentFile.Store((*os.File)(nil))

	case needsNewFile:
		logFile, err := openLogFile(cfg)
		if err != nil {
			return fmtErrorf("failed to open log file: %w", err)
		}
		if currentFile != nil {
			_ = currentFile.Sync()
			if err := currentFile.Close(); err != nil {
				l.internalLog("warning - failed to close old log file: %v\n", err)
			}
		}
		l.state.CurrentFile.Store(logFile)
	}

	l.currentConfig.Store(cfg)
	l.state.ConsoleWriter.Store(l.consoleSink(cfg))
	l.state.IsInitialized.Store(true)
	l.state.LoggerDisabled.Store(false)
	l.state.ShutdownCalled.Store(false)

	if needsRestart {
		return l.Start()
	}
	return nil
}

// openLogFile creates the log directory and opens the log file for appending
func openLogFile(cfg *Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", cfg.Directory, err)
	}
	name := cfg.Name
	if cfg.Extension != "" {
		name += "." + cfg.Extension
	}
	return os.OpenFile(filepath.Join(cfg.Directory, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
