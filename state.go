package toastlog

import (
	"io"
	"sync"
	"sync/atomic"
)

// State encapsulates the runtime state of the logger
type State struct {
	IsInitialized   atomic.Bool
	LoggerDisabled  atomic.Bool
	ShutdownCalled  atomic.Bool
	Started         atomic.Bool
	ProcessorExited atomic.Bool

	flushRequestChan chan chan struct{}
	flushMutex       sync.Mutex

	CurrentFile   atomic.Value // stores *os.File
	ConsoleWriter atomic.Value // stores *sink

	DroppedLogs        atomic.Uint64
	TotalLogsProcessed atomic.Uint64

	ActiveLogChannel atomic.Value // stores chan logRecord
}

// sink wraps an io.Writer so atomic.Value always stores the same concrete type
type sink struct {
	w io.Writer
}
