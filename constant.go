package toastlog

import (
	"time"

	"github.com/lixenwraith/toastlog/formatter"
)

// Log level constants
const (
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelError int64 = 8
)

// Record flags for controlling output structure
const (
	FlagRaw           = formatter.FlagRaw
	FlagShowTimestamp = formatter.FlagShowTimestamp
	FlagShowLevel     = formatter.FlagShowLevel
	FlagDefault       = FlagShowTimestamp | FlagShowLevel
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Upper bound for stack trace depth
	maxTraceDepth = 10
)
