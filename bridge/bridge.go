// Package bridge surfaces error reports as user-facing notifications.
//
// A Bridge observes a toastlog.Logger: every error the logger records is first
// written to the logger's own outputs, unchanged, and then rendered to a single
// line of text and reported to a notify.Channel. Failures on the notification
// path are contained so that an error report never turns into a fault at the
// call site.
//
// Installation is deduplicated: installing the same channel on the same logger
// again returns the bridge already in place, so each error produces exactly one
// notification.
package bridge

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/notify"
)

var (
	// ErrNilLogger is returned by Install for a nil logger
	ErrNilLogger = errors.New("bridge: logger cannot be nil")
	// ErrNilChannel is returned when no notification channel is given
	ErrNilChannel = errors.New("bridge: channel cannot be nil")
	// ErrChannelNotComparable is returned for channels that cannot be identified for deduplication
	ErrChannelNotComparable = errors.New("bridge: channel must be a comparable value, e.g. a pointer")

	errUnserializable = errors.New("bridge: value cannot be serialized")
)

// ErrorFunc is any variadic error-reporting function
type ErrorFunc func(args ...any)

// Option customizes a Bridge
type Option func(*Bridge)

// WithSuppressEmpty skips notifications whose rendered text is empty
func WithSuppressEmpty(suppress bool) Option {
	return func(b *Bridge) {
		b.suppressEmpty = suppress
	}
}

// WithMinLevel observes records at or above level instead of errors only
func WithMinLevel(level int64) Option {
	return func(b *Bridge) {
		b.minLevel = level
	}
}

// WithDiagnostics sets where notification failures are reported.
// Install defaults to the observed logger's internal diagnostics.
func WithDiagnostics(diag func(format string, args ...any)) Option {
	return func(b *Bridge) {
		b.diag = diag
	}
}

// Stats counts bridge outcomes
type Stats struct {
	Reported   uint64 // Notifications accepted by the channel
	Suppressed uint64 // Empty notifications skipped
	Failed     uint64 // Channel errors and recovered panics
}

// Bridge forwards rendered error reports to a notification channel
type Bridge struct {
	logger        *toastlog.Logger
	channel       notify.Channel
	minLevel      int64
	suppressEmpty bool
	diag          func(format string, args ...any)

	reg       toastlog.Registration
	installed atomic.Bool

	reported   atomic.Uint64
	suppressed atomic.Uint64
	failed     atomic.Uint64
}

type installKey struct {
	logger  *toastlog.Logger
	channel notify.Channel
}

// registry tracks installed bridges by (logger, channel)
var registry = struct {
	sync.Mutex
	bridges map[installKey]*Bridge
}{bridges: make(map[installKey]*Bridge)}

// Install registers a bridge reporting logger errors to ch.
// The channel should already be mounted; reports made before that fail and
// are counted in Stats without affecting the caller.
// Installing an already installed (logger, ch) pair returns the existing bridge.
func Install(logger *toastlog.Logger, ch notify.Channel, opts ...Option) (*Bridge, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if ch == nil {
		return nil, ErrNilChannel
	}
	// Value.Comparable also inspects interface fields, which a map key hash would panic on
	if !reflect.ValueOf(ch).Comparable() {
		return nil, ErrChannelNotComparable
	}

	key := installKey{logger: logger, channel: ch}

	registry.Lock()
	defer registry.Unlock()

	if existing, ok := registry.bridges[key]; ok {
		return existing, nil
	}

	b := newBridge(ch, opts)
	b.logger = logger
	if b.diag == nil {
		b.diag = logger.InternalError
	}

	reg, _ := logger.AddObserver(b.minLevel, b)
	b.reg = reg
	b.installed.Store(true)
	registry.bridges[key] = b
	return b, nil
}

// InstallDefault installs a bridge on the process-wide default logger
func InstallDefault(ch notify.Channel, opts ...Option) (*Bridge, error) {
	return Install(toastlog.Default(), ch, opts...)
}

// Wrap decorates fn: each call runs fn with the original arguments, then
// reports them to ch. Wrapping a wrapped function notifies once per layer.
// Failures go to the default logger's internal diagnostics unless WithDiagnostics is given.
func Wrap(fn ErrorFunc, ch notify.Channel, opts ...Option) ErrorFunc {
	b := newBridge(ch, opts)
	if b.diag == nil {
		b.diag = toastlog.Default().InternalError
	}
	return func(args ...any) {
		if fn != nil {
			fn(args...)
		}
		b.deliver(args)
	}
}

func newBridge(ch notify.Channel, opts []Option) *Bridge {
	b := &Bridge{channel: ch, minLevel: toastlog.LevelError}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Uninstall detaches the bridge from its logger. Returns false if it was not installed
func (b *Bridge) Uninstall() bool {
	registry.Lock()
	defer registry.Unlock()

	if !b.installed.CompareAndSwap(true, false) {
		return false
	}
	b.reg.Remove()
	delete(registry.bridges, installKey{logger: b.logger, channel: b.channel})
	return true
}

// Installed reports whether the bridge is attached to a logger
func (b *Bridge) Installed() bool {
	return b.installed.Load()
}

// Stats returns a snapshot of the outcome counters
func (b *Bridge) Stats() Stats {
	return Stats{
		Reported:   b.reported.Load(),
		Suppressed: b.suppressed.Load(),
		Failed:     b.failed.Load(),
	}
}

// Observe implements toastlog.Observer
func (b *Bridge) Observe(level int64, args []any) {
	if level < b.minLevel {
		return
	}
	b.deliver(args)
}

// deliver renders args and reports them, containing every failure
func (b *Bridge) deliver(args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.failed.Add(1)
			b.report("notification panicked: %v\n", r)
		}
	}()

	if b.channel == nil {
		b.failed.Add(1)
		b.report("%v\n", ErrNilChannel)
		return
	}

	text := Render(args...)
	if text == "" && b.suppressEmpty {
		b.suppressed.Add(1)
		return
	}

	if err := b.channel.ReportError(text); err != nil {
		b.failed.Add(1)
		b.report("notification failed: %v\n", err)
		return
	}
	b.reported.Add(1)
}

func (b *Bridge) report(format string, args ...any) {
	if b.diag != nil {
		b.diag("bridge: "+format, args...)
	}
}
