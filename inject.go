package msc

import (
	"reflect"
	"sync"
)

// Injector is a sink supporting a symmetric inject/uninject pair tied to a
// dependent's lifecycle. Inject hands a resolved value to the owner; it is
// called at most once before a matching Uninject. Uninject reverses the
// effect and must be safe to call even when Inject never ran, so teardown
// code can be applied uniformly over fully- and partially-started services.
//
// The Injector contract provides no locking; injection and uninjection for
// one service are sequenced by the container.
type Injector[T any] interface {
	// Inject stores or applies the value to the injector's owner. Calling
	// Inject while a value is already injected fails with a
	// DoubleInjectionError.
	Inject(value T) error

	// Uninject retracts a previously injected value. Calling Uninject when
	// nothing is injected is a no-op.
	Uninject()
}

// InjectedValue is both a Value and an Injector: the standard target for
// dependency injection. The container injects the dependency's resolved
// value before the owner starts, the owner reads it through Value, and the
// container uninjects after the owner stops.
//
// Reads and writes are synchronized, so a started service may resolve the
// value from any goroutine.
type InjectedValue[T any] struct {
	mu       sync.RWMutex
	value    T
	injected bool
}

var (
	_ Value[any]    = (*InjectedValue[any])(nil)
	_ Injector[any] = (*InjectedValue[any])(nil)
)

// NewInjectedValue creates an empty injected value.
func NewInjectedValue[T any]() *InjectedValue[T] {
	return &InjectedValue[T]{}
}

// Value returns the injected value, or fails with ErrUninjected when no
// value is currently injected.
func (v *InjectedValue[T]) Value() (T, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.injected {
		var zero T
		return zero, &ValueResolutionError{Op: "injected value", Cause: ErrUninjected}
	}
	return v.value, nil
}

// Inject stores the value. Injecting twice without an intervening Uninject
// fails with a DoubleInjectionError.
func (v *InjectedValue[T]) Inject(value T) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.injected {
		return DoubleInjectionError{}
	}
	v.value = value
	v.injected = true
	return nil
}

// Uninject clears the stored value. It is a no-op when nothing is injected.
func (v *InjectedValue[T]) Uninject() {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.value = zero
	v.injected = false
}

// nilInjector discards everything handed to it.
type nilInjector[T any] struct{}

// NilInjector creates an injector that discards injected values. It is
// useful when a dependency edge is wanted purely for ordering.
func NilInjector[T any]() Injector[T] {
	return nilInjector[T]{}
}

func (nilInjector[T]) Inject(T) error { return nil }
func (nilInjector[T]) Uninject()      {}

// funcInjector adapts a pair of closures to the Injector contract.
type funcInjector[T any] struct {
	inject   func(T) error
	uninject func()
	active   bool
}

// NewFuncInjector creates an injector backed by the given closures. The
// uninject closure may be nil; either way Uninject only runs after a
// successful Inject, preserving the no-op guarantee for never-injected
// targets. Double injection is rejected before the inject closure runs.
func NewFuncInjector[T any](inject func(T) error, uninject func()) Injector[T] {
	if inject == nil {
		usage("create func injector", ErrInjectorNil)
	}
	return &funcInjector[T]{inject: inject, uninject: uninject}
}

func (f *funcInjector[T]) Inject(value T) error {
	if f.active {
		return DoubleInjectionError{}
	}
	if err := f.inject(value); err != nil {
		return err
	}
	f.active = true
	return nil
}

func (f *funcInjector[T]) Uninject() {
	if !f.active {
		return
	}
	f.active = false
	if f.uninject != nil {
		f.uninject()
	}
}

// typedInjector narrows untyped injections onto a typed target, enforcing
// the declared expected type before the target sees the value.
type typedInjector[I any] struct {
	target Injector[I]
}

// TypedInjector adapts a typed injector to the untyped Injector[any] used
// by dependency declarations. The resolved value is checked against I
// before injection; a mismatch fails with a TypeMismatchError and the
// underlying target's Inject is never called. A nil value injects the zero
// value of I.
func TypedInjector[I any](target Injector[I]) Injector[any] {
	if target == nil {
		usage("create typed injector", ErrInjectorNil)
	}
	return typedInjector[I]{target: target}
}

func (t typedInjector[I]) Inject(value any) error {
	if value == nil {
		var zero I
		return t.target.Inject(zero)
	}
	typed, ok := value.(I)
	if !ok {
		return TypeMismatchError{
			Expected: reflect.TypeOf((*I)(nil)).Elem(),
			Actual:   reflect.TypeOf(value),
			Context:  "dependency injection",
		}
	}
	return t.target.Inject(typed)
}

func (t typedInjector[I]) Uninject() {
	t.target.Uninject()
}
