// Package compat adapts third-party server logging interfaces to toastlog,
// so errors raised inside those servers reach the logger and its observers.
package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/toastlog"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger on top of a toastlog.Logger
type GnetAdapter struct {
	logger       *toastlog.Logger
	prefix       string
	fatalHandler func(msg string)
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler replaces the default os.Exit(1) on Fatalf
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetPrefix sets the first argument of every record, "gnet:" by default
func WithGnetPrefix(prefix string) GnetOption {
	return func(a *GnetAdapter) {
		a.prefix = prefix
	}
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *toastlog.Logger, opts ...GnetOption) *GnetAdapter {
	a := &GnetAdapter{
		logger: logger,
		prefix: "gnet:",
		fatalHandler: func(string) {
			os.Exit(1)
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Debugf logs at debug level
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(a.prefix, fmt.Sprintf(format, args...))
}

// Infof logs at info level
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.Info(a.prefix, fmt.Sprintf(format, args...))
}

// Warnf logs at warn level
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.Warn(a.prefix, fmt.Sprintf(format, args...))
}

// Errorf logs at error level
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.Error(a.prefix, fmt.Sprintf(format, args...))
}

// Fatalf logs at error level, flushes, then calls the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Error(a.prefix, msg, "fatal")

	_ = a.logger.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
