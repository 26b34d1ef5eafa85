package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/toastlog"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter implements fasthttp.Logger on top of a toastlog.Logger
type FastHTTPAdapter struct {
	logger        *toastlog.Logger
	defaultLevel  int64
	levelDetector func(string) int64
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection finds nothing
func WithDefaultLevel(level int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect level from message content
// The detector returns LevelUnknown to fall back to the default level
func WithLevelDetector(detector func(string) int64) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *toastlog.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	a := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  toastlog.LevelInfo,
		levelDetector: DetectLogLevel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Printf implements fasthttp.Logger
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := detect(a.levelDetector, msg); ok {
			level = detected
		}
	}

	switch level {
	case toastlog.LevelDebug:
		a.logger.Debug("fasthttp:", msg)
	case toastlog.LevelWarn:
		a.logger.Warn("fasthttp:", msg)
	case toastlog.LevelError:
		a.logger.Error("fasthttp:", msg)
	default:
		a.logger.Info("fasthttp:", msg)
	}
}

// LevelUnknown is returned by detectors that found no indicator
const LevelUnknown int64 = -1

func detect(detector func(string) int64, msg string) (int64, bool) {
	level := detector(msg)
	return level, level != LevelUnknown
}

// DetectLogLevel infers a level from keywords in fasthttp messages
func DetectLogLevel(msg string) int64 {
	lower := strings.ToLower(msg)

	switch {
	case containsAny(lower, "error", "failed", "fatal", "panic"):
		return toastlog.LevelError
	case containsAny(lower, "warn", "deprecated", "cannot be served"):
		return toastlog.LevelWarn
	case containsAny(lower, "debug", "trace"):
		return toastlog.LevelDebug
	}
	return LevelUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
