package toastlog

import (
	"io"
)

// Builder provides a fluent API for building logger configurations
type Builder struct {
	cfg    *Config
	output io.Writer
	err    error // Deferred until Build
}

// NewBuilder creates a new configuration builder with default values
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// Build creates a configured, not yet started Logger
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger()
	if b.output != nil {
		logger.SetOutput(b.output)
	}
	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}
	return logger, nil
}

// Level sets the log level
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the log level from its name
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	lvl, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = lvl
	return b
}

// Format sets the output format
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Directory sets the log file directory
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Name sets the log file base name
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// EnableFile toggles file output
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// EnableConsole toggles console output
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// Output sends console output to w instead of stdout/stderr
func (b *Builder) Output(w io.Writer) *Builder {
	b.output = w
	return b
}

// BufferSize sets the channel buffer size
func (b *Builder) BufferSize(size int64) *Builder {
	b.cfg.BufferSize = size
	return b
}

// FlushIntervalMs sets the periodic file sync interval
func (b *Builder) FlushIntervalMs(ms int64) *Builder {
	b.cfg.FlushIntervalMs = ms
	return b
}

// ShowTimestamp toggles timestamps in formatted output
func (b *Builder) ShowTimestamp(show bool) *Builder {
	b.cfg.ShowTimestamp = show
	return b
}

// InternalErrorsToStderr toggles logger self-diagnostics on stderr
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}
