package toastlog

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// logRecord represents a single log entry
type logRecord struct {
	Flags           int64
	TimeStamp       time.Time
	Level           int64
	Trace           string
	Args            []any
	unreportedDrops uint64 // Set on drop reports to restore the count if the report itself is dropped
}

// getCurrentLogChannel safely retrieves the current log channel
func (l *Logger) getCurrentLogChannel() chan logRecord {
	return l.state.ActiveLogChannel.Load().(chan logRecord)
}

// getFlags from config
func (l *Logger) getFlags() int64 {
	var flags int64
	cfg := l.getConfig()
	if cfg.ShowLevel {
		flags |= FlagShowLevel
	}
	if cfg.ShowTimestamp {
		flags |= FlagShowTimestamp
	}
	return flags
}

// accepting reports whether records are currently taken in
func (l *Logger) accepting() bool {
	return l.state.IsInitialized.Load() && !l.state.ShutdownCalled.Load() && !l.state.LoggerDisabled.Load()
}

// log hands the record to the sink path, then invokes observers on the caller's goroutine
func (l *Logger) log(flags int64, level int64, depth int64, args ...any) {
	if !l.accepting() {
		l.state.DroppedLogs.Add(1)
		return
	}

	if level >= l.getConfig().Level {
		var trace string
		if depth > 0 {
			const skipTrace = 3 // Error -> log -> getTrace
			trace = getTrace(depth, skipTrace)
		}
		l.sendLogRecord(logRecord{
			Flags:     flags,
			TimeStamp: time.Now(),
			Level:     level,
			Trace:     trace,
			Args:      args,
		})
	}

	l.observers.notify(l, level, args)
}

// sendLogRecord performs a non-blocking send to the active channel
func (l *Logger) sendLogRecord(record logRecord) {
	defer func() {
		if r := recover(); r != nil { // Send on a channel closed by Stop
			l.handleFailedSend(record)
		}
	}()

	ch := l.getCurrentLogChannel()
	select {
	case ch <- record:
		if record.unreportedDrops == 0 {
			if dropped := l.state.DroppedLogs.Swap(0); dropped > 0 {
				l.reportDrops(dropped)
			}
		}
	default:
		l.handleFailedSend(record)
	}
}

// reportDrops logs the drop count as an error record and hands it to observers
func (l *Logger) reportDrops(dropped uint64) {
	args := []any{"Logs were dropped", "dropped_count", dropped}
	l.sendLogRecord(logRecord{
		Flags:           FlagDefault,
		TimeStamp:       time.Now(),
		Level:           LevelError,
		Args:            args,
		unreportedDrops: dropped,
	})
	l.observers.notify(l, LevelError, args)
}

// handleFailedSend restores or increments the drop counter
func (l *Logger) handleFailedSend(record logRecord) {
	if record.unreportedDrops > 0 {
		l.state.DroppedLogs.Add(record.unreportedDrops)
		return
	}
	l.state.DroppedLogs.Add(1)
}

// internalLog writes logger diagnostics to stderr when enabled
func (l *Logger) internalLog(format string, args ...any) {
	if !l.getConfig().InternalErrorsToStderr {
		return
	}
	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// InternalError reports a diagnostic about the logging pipeline itself.
// It never reaches observers, so observers may call it without recursing.
func (l *Logger) InternalError(format string, args ...any) {
	l.internalLog(format, args...)
}
