// Package modregistry implements the global, insert-only module factory
// registry described in §4.7 ("Module registry (C7)"). Every feature module
// (modules/license, modules/inventory, ...) calls Register from an init()
// function; the Client constructor then calls every registered factory once
// per Client to produce that Client's module set.
package modregistry

import (
	"fmt"
	"reflect"
	"sync"
)

// Module is the lifecycle contract every feature module implements.
//
// Init runs after every module for a Client has been constructed, so a
// module may look up siblings and register waiters against them. Run is
// launched as its own scheduler task; a module whose Run returns normally
// just ends, one that returns sched.ErrOperationCancelled ends silently, and
// any other error is fatal for that task only (§4.7).
type Module interface {
	Init(client any) error
	Run(client any) error
}

// Factory produces one Module instance for one Client.
type Factory func(client any) Module

type registration struct {
	typ     reflect.Type
	name    string
	factory Factory
}

var (
	mu            sync.Mutex
	registrations []registration
	seen          = map[reflect.Type]bool{}
)

// Register adds a factory to the process-wide registry. Called from the
// package-level init() of each modules/* package; the registry is
// insert-only at startup and read-only afterward, so no lock is needed once
// every module package has been imported (§5 "Shared resources — Module
// registry: insert-only at startup; read-only afterward").
//
// sample is a zero-value instance of the type the factory returns; it is
// used only to key the registry by type, never invoked.
func Register(name string, sample Module, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeOf(sample)
	if seen[t] {
		panic(fmt.Sprintf("modregistry: %s already registered", t))
	}
	seen[t] = true
	registrations = append(registrations, registration{typ: t, name: name, factory: factory})
}

// Set is one Client's instantiated modules, keyed by concrete module type.
type Set struct {
	mu      sync.RWMutex
	modules map[reflect.Type]Module
	order   []reflect.Type
}

// Instantiate runs every registered factory against client, producing that
// Client's module Set (§4.7 "The Client constructor calls every factory to
// produce one module instance per Client, stores them keyed by module
// type").
func Instantiate(client any) *Set {
	mu.Lock()
	regs := append([]registration(nil), registrations...)
	mu.Unlock()

	set := &Set{modules: make(map[reflect.Type]Module, len(regs))}
	for _, r := range regs {
		m := r.factory(client)
		t := reflect.TypeOf(m)
		set.modules[t] = m
		set.order = append(set.order, t)
	}
	return set
}

// Lookup returns the module of type T in this set, mirroring §4.7's
// "sibling module lookup" from within Init.
func Lookup[T Module](s *Set) (T, bool) {
	var zero T
	t := reflect.TypeOf(zero)
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[t]
	if !ok {
		return zero, false
	}
	typed, ok := m.(T)
	return typed, ok
}

// All returns every module in this set, in registration order, for Init/Run
// fan-out.
func (s *Set) All() []Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Module, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.modules[t])
	}
	return out
}
