package toastlog

import (
	"reflect"
	"sync"
)

// Observer receives every record logged at or above its registered level,
// after the logger has handed the record to its own outputs.
// args must be treated as read-only.
type Observer interface {
	Observe(level int64, args []any)
}

// ObserverFunc adapts a function to Observer. Functions are not comparable,
// so registering the same ObserverFunc twice adds two observers.
type ObserverFunc func(level int64, args []any)

// Observe calls f(level, args)
func (f ObserverFunc) Observe(level int64, args []any) {
	f(level, args)
}

// Registration identifies one registered observer
type Registration struct {
	logger *Logger
	id     uint64
}

// Remove unregisters the observer. Returns false if it was already removed
func (r Registration) Remove() bool {
	if r.logger == nil {
		return false
	}
	return r.logger.observers.remove(r.id)
}

type observerEntry struct {
	id       uint64
	minLevel int64
	observer Observer
}

// observerRegistry holds observers in registration order
type observerRegistry struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []observerEntry
}

// AddObserver registers o for records at or above minLevel.
// A comparable observer that is already registered is not added again; its
// existing registration is returned with added=false.
func (l *Logger) AddObserver(minLevel int64, o Observer) (reg Registration, added bool) {
	if o == nil {
		return Registration{}, false
	}

	r := &l.observers
	r.mu.Lock()
	defer r.mu.Unlock()

	if reflect.TypeOf(o).Comparable() {
		for _, e := range r.entries {
			if e.observer == o {
				return Registration{logger: l, id: e.id}, false
			}
		}
	}

	r.nextID++
	r.entries = append(r.entries, observerEntry{id: r.nextID, minLevel: minLevel, observer: o})
	return Registration{logger: l, id: r.nextID}, true
}

// ObserverCount returns the number of registered observers
func (l *Logger) ObserverCount() int {
	l.observers.mu.RLock()
	defer l.observers.mu.RUnlock()
	return len(l.observers.entries)
}

func (r *observerRegistry) remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// notify invokes matching observers without holding the lock
func (r *observerRegistry) notify(l *Logger, level int64, args []any) {
	r.mu.RLock()
	if len(r.entries) == 0 {
		r.mu.RUnlock()
		return
	}
	matched := make([]Observer, 0, len(r.entries))
	for _, e := range r.entries {
		if level >= e.minLevel {
			matched = append(matched, e.observer)
		}
	}
	r.mu.RUnlock()

	for _, o := range matched {
		l.callObserver(o, level, args)
	}
}

// callObserver isolates the caller from a panicking observer
func (l *Logger) callObserver(o Observer, level int64, args []any) {
	defer func() {
		if rec := recover(); rec != nil {
			l.internalLog("observer %T panicked: %v\n", o, rec)
		}
	}()
	o.Observe(level, args)
}
