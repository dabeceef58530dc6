package msc

import (
	"fmt"
	"reflect"
	"sync"
)

// Value represents a lazily resolved computation of a typed result. A Value
// is resolved exactly when requested and is never cached by the engine
// itself; wrap a Value in CachedValue when memoization is wanted.
//
// Resolving a Value must not mutate its children, so repeated resolution is
// legal and may legitimately produce different results when an underlying
// leaf is mutable. Independent Value trees may be resolved concurrently
// without coordination; trees that share a mutable leaf rely on that leaf's
// own synchronization.
type Value[T any] interface {
	// Value resolves and returns the result, or a *ValueResolutionError
	// describing the first failure encountered.
	Value() (T, error)
}

// immediateValue is a constant leaf.
type immediateValue[T any] struct {
	value T
}

// NewValue creates a leaf value that always resolves to the given constant.
func NewValue[T any](value T) Value[T] {
	return immediateValue[T]{value: value}
}

func (v immediateValue[T]) Value() (T, error) {
	return v.value, nil
}

// nilValue resolves to the zero value of its type.
type nilValue[T any] struct{}

// NilValue creates a leaf that resolves to the zero value of T. It stands
// in for "no value" slots such as the target of an unbound method value.
func NilValue[T any]() Value[T] {
	return nilValue[T]{}
}

func (nilValue[T]) Value() (T, error) {
	var zero T
	return zero, nil
}

// funcValue defers resolution to a closure captured at declaration time.
type funcValue[T any] func() (T, error)

// FuncValue creates a leaf value backed by the given closure. The closure
// is invoked on every resolution.
func FuncValue[T any](fn func() (T, error)) Value[T] {
	if fn == nil {
		usage("create func value", ErrValueNil)
	}
	return funcValue[T](fn)
}

func (v funcValue[T]) Value() (T, error) {
	return v()
}

// cachedValue memoizes the first resolution of its delegate, including a
// failed one.
type cachedValue[T any] struct {
	once     sync.Once
	delegate Value[T]
	value    T
	err      error
}

// CachedValue wraps a value so that its delegate resolves at most once; the
// first result, success or failure, is returned on every subsequent
// resolution. Safe for concurrent use.
func CachedValue[T any](delegate Value[T]) Value[T] {
	if delegate == nil {
		usage("create cached value", ErrValueNil)
	}
	return &cachedValue[T]{delegate: delegate}
}

func (v *cachedValue[T]) Value() (T, error) {
	v.once.Do(func() {
		v.value, v.err = v.delegate.Value()
		v.delegate = nil
	})
	return v.value, v.err
}

// anyValue erases the static type of a value.
type anyValue[T any] struct {
	delegate Value[T]
}

// AnyValue adapts a typed value to Value[any] so it can participate in
// composite values and builder declarations, which operate on untyped
// sequences.
func AnyValue[T any](delegate Value[T]) Value[any] {
	if delegate == nil {
		usage("adapt value", ErrValueNil)
	}
	return anyValue[T]{delegate: delegate}
}

func (v anyValue[T]) Value() (any, error) {
	out, err := v.delegate.Value()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// typedValue narrows an untyped value, failing with a TypeMismatchError
// when the resolved result is not a T.
type typedValue[T any] struct {
	delegate Value[any]
}

// TypedValue adapts Value[any] back to a typed value. Resolution fails with
// a *ValueResolutionError wrapping a TypeMismatchError if the underlying
// result is not assignable to T.
func TypedValue[T any](delegate Value[any]) Value[T] {
	if delegate == nil {
		usage("adapt value", ErrValueNil)
	}
	return typedValue[T]{delegate: delegate}
}

func (v typedValue[T]) Value() (T, error) {
	var zero T
	out, err := v.delegate.Value()
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(T)
	if !ok {
		return zero, &ValueResolutionError{
			Op: "typed value",
			Cause: TypeMismatchError{
				Expected: reflect.TypeOf((*T)(nil)).Elem(),
				Actual:   reflect.TypeOf(out),
				Context:  "value conversion",
			},
		}
	}
	return typed, nil
}

// resolveAll resolves an ordered sequence of values left to right, stopping
// at the first failure. The failing index is reported through the wrapped
// error's Op; later siblings are not resolved.
func resolveAll(values []Value[any], what string) ([]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		r, err := v.Value()
		if err != nil {
			return nil, &ValueResolutionError{
				Op:    fmt.Sprintf("%s %d", what, i),
				Cause: err,
			}
		}
		out[i] = r
	}
	return out, nil
}
