package msc

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/maeste/jboss-msc/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// They exist so callers can test failure categories with errors.Is.

var (
	// Builder and batch usage errors.
	ErrBuilderSealed  = errors.New("service builder already built")
	ErrBatchInstalled = errors.New("batch already installed")
	ErrServiceNil     = errors.New("service cannot be nil")
	ErrInjectorNil    = errors.New("injector cannot be nil")
	ErrValueNil       = errors.New("value cannot be nil")
	ErrListenerNil    = errors.New("listener cannot be nil")

	// Value resolution errors.
	ErrUninjected        = errors.New("no value has been injected")
	ErrAlreadyInjected   = errors.New("a value is already injected")
	ErrMethodNotFound    = errors.New("method not found")
	ErrFieldNotFound     = errors.New("field not found")
	ErrFieldInaccessible = errors.New("field is not accessible")
	ErrNotInvocable      = errors.New("method value is not invocable")
	ErrTargetNil         = errors.New("target value is nil")

	// Container errors.
	ErrServiceNotFound = errors.New("service not found")
	ErrServiceNever    = errors.New("service mode is Never")
	ErrServiceDown     = errors.New("service is not started")
	ErrContainerClosed = errors.New("container has been closed")
)

var (
	_ error = UsageError{}
	_ error = ModeError{}
	_ error = ValueResolutionError{}
	_ error = InvocationError{}
	_ error = DoubleInjectionError{}
	_ error = TypeMismatchError{}
	_ error = MissingDependencyError{}
	_ error = DuplicateServiceError{}
	_ error = StartError{}
	_ error = StopError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================
// Domain errors are always one of these types wrapping a sentinel or a
// lower-level cause, never a bare fmt.Errorf.

// UsageError indicates a programming defect: a builder mutated after being
// built, a batch installed twice, and similar misuse of a single-session
// object. Usage errors are raised as panics at the offending call site and
// are never part of normal control flow.
type UsageError struct {
	Op    string
	Cause error
}

func (e UsageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e UsageError) Unwrap() error {
	return e.Cause
}

// ModeError indicates an invalid service mode value.
type ModeError struct {
	Value any
}

func (e ModeError) Error() string {
	return fmt.Sprintf("invalid service mode: %v", e.Value)
}

// CircularDependencyError is reported when a batch introduces a dependency
// cycle between installed services.
type CircularDependencyError = graph.CircularDependencyError

// ValueResolutionError indicates a value tree failed to produce its result.
// Op names the node that failed ("method", "target", "parameter 2", ...);
// Cause carries the underlying failure, which for composite values may be a
// nested *ValueResolutionError or an *InvocationError.
type ValueResolutionError struct {
	Op    string
	Cause error
}

func (e ValueResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", e.Op, e.Cause)
}

func (e ValueResolutionError) Unwrap() error {
	return e.Cause
}

// InvocationError indicates that a resolved method was invoked and the
// invocation itself failed: the callee returned a non-nil error, panicked,
// or was handed arguments it cannot accept. It is distinct from a child
// value that could not be resolved.
type InvocationError struct {
	Func  reflect.Type
	Cause error
}

func (e InvocationError) Error() string {
	if e.Func != nil {
		return fmt.Sprintf("failed to invoke %s: %v", e.Func, e.Cause)
	}
	return fmt.Sprintf("failed to invoke method: %v", e.Cause)
}

func (e InvocationError) Unwrap() error {
	return e.Cause
}

// DoubleInjectionError indicates Inject was called on a target that already
// holds an injected value with no intervening Uninject.
type DoubleInjectionError struct{}

func (e DoubleInjectionError) Error() string {
	return ErrAlreadyInjected.Error()
}

func (e DoubleInjectionError) Is(target error) bool {
	return target == ErrAlreadyInjected
}

// TypeMismatchError indicates a resolved value did not satisfy the type
// declared for its injection target.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, formatType(e.Expected), formatType(e.Actual))
}

// MissingDependencyError indicates a mandatory dependency refers to a
// service name that is not installed in the container. Optional
// dependencies on missing names never produce this error; their injection
// targets are simply left untouched.
type MissingDependencyError struct {
	Dependent  ServiceName
	Dependency ServiceName
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("service %s has a mandatory dependency on %s, which is not installed", e.Dependent, e.Dependency)
}

func (e MissingDependencyError) Is(target error) bool {
	return target == ErrServiceNotFound
}

// DuplicateServiceError indicates a batch tried to install a service under
// a name or alias that is already registered.
type DuplicateServiceError struct {
	Name ServiceName
}

func (e DuplicateServiceError) Error() string {
	return fmt.Sprintf("service name %s is already registered", e.Name)
}

// StartError wraps any failure that prevented a service from reaching the
// up state. The cause chain runs from the service all the way down to the
// leaf failure (a missing dependency, a type mismatch, or a value that
// could not be resolved).
type StartError struct {
	Name  ServiceName
	Cause error
}

func (e StartError) Error() string {
	return fmt.Sprintf("service %s failed to start: %v", e.Name, e.Cause)
}

func (e StartError) Unwrap() error {
	return e.Cause
}

// StopError wraps a failure reported by a service's Stop. The service is
// still brought down and uninjected when Stop fails.
type StopError struct {
	Name  ServiceName
	Cause error
}

func (e StopError) Error() string {
	return fmt.Sprintf("service %s failed to stop cleanly: %v", e.Name, e.Cause)
}

func (e StopError) Unwrap() error {
	return e.Cause
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

// usage panics with a UsageError for the given operation. Misuse of
// single-session objects is a defect in the calling code, not a runtime
// condition, so it surfaces at the call site.
func usage(op string, cause error) {
	panic(&UsageError{Op: op, Cause: cause})
}
