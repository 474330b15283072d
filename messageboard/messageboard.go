// Package messageboard implements the type-indexed multi-subscriber FIFO
// pub-sub primitive described in §4.5 ("Messageboard (C5)"), grounded on
// original_source's Headers/Client/Messageboard.hpp: post order is
// preserved per subscriber and per type, but there is no ordering
// guarantee across distinct message types.
package messageboard

import (
	"reflect"
	"sync"

	"github.com/k64z/steamfleet/waiter"
)

// Messageboard routes posted values of type T to every live Observer[T].
type Messageboard struct {
	mu        sync.Mutex
	observers map[reflect.Type][]*observerBox
}

func New() *Messageboard {
	return &Messageboard{observers: make(map[reflect.Type][]*observerBox)}
}

type observerBox struct {
	mu   sync.Mutex
	drop bool // weak handle marked dropped; post skips and reaps it
	push func(any)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Send delivers msg to every live T-subscriber and reports how many
// received it (§4.5 "send<T>(shared message) → recipient count").
func Send[T any](mb *Messageboard, msg T) int {
	t := typeOf[T]()

	mb.mu.Lock()
	boxes := mb.observers[t]
	live := boxes[:0]
	count := 0
	for _, b := range boxes {
		b.mu.Lock()
		dropped := b.drop
		b.mu.Unlock()
		if dropped {
			continue
		}
		live = append(live, b)
	}
	mb.observers[t] = live
	boxesCopy := append([]*observerBox(nil), live...)
	mb.mu.Unlock()

	for _, b := range boxesCopy {
		b.push(msg)
		count++
	}
	return count
}

// Observer is a per-subscriber FIFO queue for messages of type T.
type Observer[T any] struct {
	box  *observerBox
	w    *waiter.Waiter
	mu   sync.Mutex
	q    []T
}

// CreateObserver registers an observer for T on mb, registering it with w
// so w.Wait wakes whenever a new message of type T arrives.
func CreateObserver[T any](mb *Messageboard, w *waiter.Waiter) *Observer[T] {
	o := &Observer[T]{w: w}
	o.box = &observerBox{push: func(v any) {
		o.mu.Lock()
		o.q = append(o.q, v.(T))
		o.mu.Unlock()
		if o.w != nil {
			o.w.Notify()
		}
	}}

	t := typeOf[T]()
	mb.mu.Lock()
	mb.observers[t] = append(mb.observers[t], o.box)
	mb.mu.Unlock()

	if w != nil {
		w.Register(o)
	}
	return o
}

// Fetch returns the next queued message, or ok=false if the queue is empty.
func (o *Observer[T]) Fetch() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.q) == 0 {
		var zero T
		return zero, false
	}
	v := o.q[0]
	o.q = o.q[1:]
	return v, true
}

// Handle drains the queue, calling handler for each message in arrival
// order. If oneShot is true, it calls handler at most once.
func (o *Observer[T]) Handle(oneShot bool, handler func(T)) {
	for {
		v, ok := o.Fetch()
		if !ok {
			return
		}
		handler(v)
		if oneShot {
			return
		}
	}
}

// ConsumeWoken satisfies waiter.Item: true iff at least one message is
// queued, without removing it (Fetch/Handle do the actual consuming).
func (o *Observer[T]) ConsumeWoken() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.q) > 0
}

// Drop marks the observer's weak handle dead; it is reaped on the next
// Send for its type instead of requiring a coordinated unregister call
// (§4.5 "Weak handles enable a subscriber to be dropped...").
func (o *Observer[T]) Drop() {
	o.box.mu.Lock()
	o.box.drop = true
	o.box.mu.Unlock()
}
