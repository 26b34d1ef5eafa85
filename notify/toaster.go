// Package notify keeps the state of transient user-facing notifications:
// which toasts are visible, in what order, and when they expire.
package notify

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotMounted is returned when a toast is reported before Mount or after Unmount
var ErrNotMounted = errors.New("notify: toaster is not mounted")

// Channel is the sink the error bridge reports to
type Channel interface {
	ReportError(text string) error
}

// Severity of a toast
type Severity string

const (
	SeverityDefault Severity = "default"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Toast is one notification as exposed to renderers
type Toast struct {
	ID          string    `json:"id"`
	Severity    Severity  `json:"severity"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
	Position    Position  `json:"position"`
	Theme       Theme     `json:"theme"`
	ProgressBar bool      `json:"progress_bar"`
}

// EventType identifies a toast lifecycle change
type EventType string

const (
	EventShown     EventType = "shown"
	EventDismissed EventType = "dismissed"
)

// Event is published on every toast lifecycle change
type Event struct {
	Type  EventType `json:"type"`
	Toast Toast     `json:"toast"`
}

type entry struct {
	toast Toast
	timer *time.Timer
}

// Toaster is a Channel holding visible toasts in arrival order
type Toaster struct {
	opts Options

	mu      sync.Mutex
	mounted bool
	entries []*entry // Oldest first
	events  *broker[Event]
}

// NewToaster validates opts and creates an unmounted toaster
func NewToaster(opts Options) (*Toaster, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Toaster{opts: opts, events: newBroker[Event]()}, nil
}

// Options returns the configured options
func (t *Toaster) Options() Options {
	return t.opts
}

// Mount makes the toaster accept notifications. Mounting twice is a no-op
func (t *Toaster) Mount() {
	t.mu.Lock()
	t.mounted = true
	t.mu.Unlock()
}

// Unmount dismisses every toast and rejects further notifications
func (t *Toaster) Unmount() {
	t.mu.Lock()
	t.mounted = false
	removed := t.entries
	t.entries = nil
	t.mu.Unlock()

	t.dismissed(removed)
}

// Mounted reports whether the toaster accepts notifications
func (t *Toaster) Mounted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mounted
}

// ReportError shows an error toast
func (t *Toaster) ReportError(text string) error {
	_, err := t.Show(SeverityError, text)
	return err
}

// Info shows an info toast
func (t *Toaster) Info(text string) (Toast, error) {
	return t.Show(SeverityInfo, text)
}

// Success shows a success toast
func (t *Toaster) Success(text string) (Toast, error) {
	return t.Show(SeveritySuccess, text)
}

// Warn shows a warning toast
func (t *Toaster) Warn(text string) (Toast, error) {
	return t.Show(SeverityWarning, text)
}

// Show adds a toast and schedules its dismissal.
// Over the configured limit the oldest toasts are dismissed.
func (t *Toaster) Show(severity Severity, text string) (Toast, error) {
	now := time.Now()
	toast := Toast{
		ID:          uuid.NewString(),
		Severity:    severity,
		Text:        text,
		CreatedAt:   now,
		Position:    t.opts.Position,
		Theme:       t.opts.Theme,
		ProgressBar: !t.opts.HideProgressBar && t.opts.AutoCloseMs > 0,
	}
	if d := t.opts.AutoClose(); d > 0 {
		toast.ExpiresAt = now.Add(d)
	}

	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return Toast{}, ErrNotMounted
	}

	e := &entry{toast: toast}
	if d := t.opts.AutoClose(); d > 0 {
		id := toast.ID
		e.timer = time.AfterFunc(d, func() { t.Dismiss(id) })
	}
	t.entries = append(t.entries, e)

	var evicted []*entry
	if t.opts.Limit > 0 && int64(len(t.entries)) > t.opts.Limit {
		n := len(t.entries) - int(t.opts.Limit)
		evicted = slices.Clone(t.entries[:n])
		t.entries = slices.Delete(t.entries, 0, n)
	}
	t.mu.Unlock()

	t.events.publish(Event{Type: EventShown, Toast: toast})
	t.dismissed(evicted)
	return toast, nil
}

// Dismiss removes a toast by id. Returns false if it is not visible
func (t *Toaster) Dismiss(id string) bool {
	t.mu.Lock()
	idx := slices.IndexFunc(t.entries, func(e *entry) bool { return e.toast.ID == id })
	if idx < 0 {
		t.mu.Unlock()
		return false
	}
	e := t.entries[idx]
	t.entries = slices.Delete(t.entries, idx, idx+1)
	t.mu.Unlock()

	t.dismissed([]*entry{e})
	return true
}

// Clear dismisses every visible toast
func (t *Toaster) Clear() {
	t.mu.Lock()
	removed := t.entries
	t.entries = nil
	t.mu.Unlock()

	t.dismissed(removed)
}

// Active returns visible toasts in display order
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	toasts := make([]Toast, len(t.entries))
	for i, e := range t.entries {
		toasts[i] = e.toast
	}
	if t.opts.NewestOnTop {
		slices.Reverse(toasts)
	}
	return toasts
}

// Subscribe streams toast events until ctx is done or Close is called
func (t *Toaster) Subscribe(ctx context.Context) <-chan Event {
	return t.events.subscribe(ctx)
}

// SubscriberCount returns the number of live subscriptions
func (t *Toaster) SubscriberCount() int {
	return t.events.subscriberCount()
}

// Close unmounts the toaster and ends all subscriptions
func (t *Toaster) Close() {
	t.Unmount()
	t.events.shutdown()
}

func (t *Toaster) dismissed(entries []*entry) {
	for _, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		t.events.publish(Event{Type: EventDismissed, Toast: e.toast})
	}
}
