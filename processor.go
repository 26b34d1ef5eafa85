package toastlog

import (
	"os"
	"time"

	"github.com/lixenwraith/toastlog/formatter"
)

// processLogs is the main log processing loop running in a separate goroutine
func (l *Logger) processLogs(ch <-chan logRecord, cfg *Config) {
	defer l.state.ProcessorExited.Store(true)

	f := formatter.New(cfg.Format).TimestampFormat(cfg.TimestampFormat)

	flushTicker := time.NewTicker(time.Duration(cfg.FlushIntervalMs) * time.Millisecond)
	defer flushTicker.Stop()

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				l.performSync()
				return
			}
			l.processLogRecord(f, record)

		case <-flushTicker.C:
			l.performSync()

		case confirmChan := <-l.state.flushRequestChan:
			// Drain what is already queued so Flush covers records sent before it
			for drained := false; !drained; {
				select {
				case record, ok := <-ch:
					if !ok {
						drained = true
						break
					}
					l.processLogRecord(f, record)
				default:
					drained = true
				}
			}
			l.performSync()
			close(confirmChan)
		}
	}
}

// processLogRecord formats one record and writes it to console and file
func (l *Logger) processLogRecord(f *formatter.Formatter, record logRecord) {
	defer func() {
		if r := recover(); r != nil {
			l.state.DroppedLogs.Add(1)
			l.internalLog("failed to format log record: %v\n", r)
		}
	}()

	data := f.Format(record.Flags, record.TimeStamp, record.Level, record.Trace, record.Args)

	if console := l.state.ConsoleWriter.Load().(*sink); console.w != nil {
		if _, err := console.w.Write(data); err != nil {
			l.internalLog("failed to write to console: %v\n", err)
		}
	}

	if file, ok := l.state.CurrentFile.Load().(*os.File); ok && file != nil {
		if _, err := file.Write(data); err != nil {
			l.internalLog("failed to write to log file: %v\n", err)
			l.state.DroppedLogs.Add(1)
			return
		}
	}

	l.state.TotalLogsProcessed.Add(1)
}

// performSync flushes the log file to disk
func (l *Logger) performSync() {
	if file, ok := l.state.CurrentFile.Load().(*os.File); ok && file != nil {
		if err := file.Sync(); err != nil {
			l.internalLog("failed to sync log file: %v\n", err)
		}
	}
}
