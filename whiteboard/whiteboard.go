// Package whiteboard implements the type-indexed latest-value store
// described in §4.4 ("Whiteboard (C4)"), grounded on the observer-pattern
// described in original_source's Headers/Client/Whiteboard.hpp: one slot
// per distinct value type, observers that track their own "changed" flag
// rather than the board tracking per-observer read positions.
package whiteboard

import (
	"reflect"
	"sync"

	"github.com/k64z/steamfleet/waiter"
)

type entry struct {
	value   any
	present bool
}

// Whiteboard holds at most one current value per distinct type T. It is
// safe for concurrent use, though per §4.3 only one Client goroutine
// should be mutating any single board at a time in practice.
type Whiteboard struct {
	mu        sync.Mutex
	values    map[reflect.Type]*entry
	observers map[reflect.Type][]*Observer
}

func New() *Whiteboard {
	return &Whiteboard{
		values:    make(map[reflect.Type]*entry),
		observers: make(map[reflect.Type][]*Observer),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Set writes value and marks every T-subscriber changed.
func Set[T any](wb *Whiteboard, value T) {
	t := typeOf[T]()
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.values[t] = &entry{value: value, present: true}
	wb.markChangedLocked(t)
}

// Clear removes the current T value, marking subscribers changed.
func Clear[T any](wb *Whiteboard) {
	t := typeOf[T]()
	wb.mu.Lock()
	defer wb.mu.Unlock()
	delete(wb.values, t)
	wb.markChangedLocked(t)
}

// Has returns the current T value and whether one is present.
func Has[T any](wb *Whiteboard) (T, bool) {
	t := typeOf[T]()
	wb.mu.Lock()
	defer wb.mu.Unlock()
	e, ok := wb.values[t]
	if !ok || !e.present {
		var zero T
		return zero, false
	}
	return e.value.(T), true
}

// Get asserts existence of a T value, panicking if absent — mirrors the
// spec's `get<T>() → &T` which asserts rather than returning an error,
// since callers only reach for it where absence is a programming error.
func Get[T any](wb *Whiteboard) T {
	v, ok := Has[T](wb)
	if !ok {
		panic("whiteboard: Get called with no value present for type " + typeOf[T]().String())
	}
	return v
}

// GetOr returns the current T value, or def if absent.
func GetOr[T any](wb *Whiteboard, def T) T {
	v, ok := Has[T](wb)
	if !ok {
		return def
	}
	return v
}

func (wb *Whiteboard) markChangedLocked(t reflect.Type) {
	for _, o := range wb.observers[t] {
		o.markChanged()
	}
}

// Observer watches one value type, tracking its own changed flag.
// CreateObserver pre-marks it changed when the key already holds a value,
// per §4.4's invariant that a newly created observer on an existing key
// wakes on its first read.
type Observer struct {
	wb      *Whiteboard
	t       reflect.Type
	w       *waiter.Waiter
	mu      sync.Mutex
	changed bool
}

// CreateObserver registers an observer for T on wb and, in turn, registers
// that observer with w so w.Wait wakes when T changes (§4.4
// "createObserver<T>(waiter) → handle").
func CreateObserver[T any](wb *Whiteboard, w *waiter.Waiter) *Observer {
	t := typeOf[T]()
	o := &Observer{wb: wb, t: t, w: w}

	wb.mu.Lock()
	if e, ok := wb.values[t]; ok && e.present {
		o.changed = true
	}
	wb.observers[t] = append(wb.observers[t], o)
	wb.mu.Unlock()

	if w != nil {
		w.Register(o)
	}
	return o
}

func (o *Observer) markChanged() {
	o.mu.Lock()
	o.changed = true
	o.mu.Unlock()
	if o.w != nil {
		o.w.Notify()
	}
}

// ConsumeWoken satisfies waiter.Item so an Observer can be registered
// directly with a Waiter.
func (o *Observer) ConsumeWoken() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.changed
	o.changed = false
	return v
}

// ObserverHas clears the observer's own changed flag and returns the current value.
func ObserverHas[T any](o *Observer) (T, bool) {
	o.mu.Lock()
	o.changed = false
	o.mu.Unlock()
	return Has[T](o.wb)
}

// ObserverGet clears the observer's changed flag and asserts existence.
func ObserverGet[T any](o *Observer) T {
	o.mu.Lock()
	o.changed = false
	o.mu.Unlock()
	return Get[T](o.wb)
}
