package msc

import (
	"fmt"
	"reflect"
)

// errorType is the reflected error interface, used to classify method
// return values.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// methodValue is a composite value produced by invoking a method. It holds
// a value yielding the callable, a value yielding the invocation receiver,
// and an ordered sequence of parameter values.
type methodValue struct {
	method Value[reflect.Value]
	target Value[any]
	params []Value[any]
}

// NewMethodValue creates a value that resolves by invoking a method.
// Resolution proceeds strictly left to right: the method value, then the
// target value, then each parameter in declared order; the first failure
// short-circuits and later children are not resolved. When the target
// resolves to a non-nil receiver it is passed as the callable's leading
// argument, so unbound method expressions compose with LookupMethodValue's
// bound callables, which take a NilValue target.
//
// A failure raised by the invocation itself (the callee returned a non-nil
// error, panicked, or rejected its arguments) is reported as an
// *InvocationError cause, distinct from a child value that could not be
// resolved.
func NewMethodValue(method Value[reflect.Value], target Value[any], params ...Value[any]) Value[any] {
	if method == nil {
		usage("create method value", ErrValueNil)
	}
	if target == nil {
		target = NilValue[any]()
	}
	return methodValue{method: method, target: target, params: params}
}

func (v methodValue) Value() (any, error) {
	fn, err := v.method.Value()
	if err != nil {
		return nil, &ValueResolutionError{Op: "method", Cause: err}
	}
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, &ValueResolutionError{Op: "method", Cause: ErrNotInvocable}
	}

	target, err := v.target.Value()
	if err != nil {
		return nil, &ValueResolutionError{Op: "target", Cause: err}
	}

	params, err := resolveAll(v.params, "parameter")
	if err != nil {
		return nil, err
	}

	args := params
	if target != nil {
		args = append([]any{target}, params...)
	}

	return invoke(fn, args)
}

// invoke calls fn with args, translating argument mismatches, panics, and
// error returns into an *InvocationError wrapped in a resolution failure.
func invoke(fn reflect.Value, args []any) (result any, err error) {
	fnType := fn.Type()

	in, convErr := convertArgs(fnType, args)
	if convErr != nil {
		return nil, &ValueResolutionError{
			Op:    "invocation",
			Cause: &InvocationError{Func: fnType, Cause: convErr},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ValueResolutionError{
				Op:    "invocation",
				Cause: &InvocationError{Func: fnType, Cause: fmt.Errorf("method panicked: %v", r)},
			}
		}
	}()

	out := fn.Call(in)

	// A trailing error return that is non-nil fails the invocation.
	if n := len(out); n > 0 && fnType.Out(n-1) == errorType {
		if callErr, _ := out[n-1].Interface().(error); callErr != nil {
			return nil, &ValueResolutionError{
				Op:    "invocation",
				Cause: &InvocationError{Func: fnType, Cause: callErr},
			}
		}
		out = out[:n-1]
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// convertArgs maps resolved argument values onto the callable's parameter
// types, permitting nil for nilable parameters.
func convertArgs(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	if fnType.IsVariadic() {
		if len(args) < fnType.NumIn()-1 {
			return nil, fmt.Errorf("expected at least %d arguments, got %d", fnType.NumIn()-1, len(args))
		}
	} else if len(args) != fnType.NumIn() {
		return nil, fmt.Errorf("expected %d arguments, got %d", fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if fnType.IsVariadic() && i >= fnType.NumIn()-1 {
			paramType = fnType.In(fnType.NumIn() - 1).Elem()
		} else {
			paramType = fnType.In(i)
		}

		if arg == nil {
			switch paramType.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
				in[i] = reflect.Zero(paramType)
				continue
			default:
				return nil, fmt.Errorf("argument %d: nil is not assignable to %s", i, formatType(paramType))
			}
		}

		value := reflect.ValueOf(arg)
		if !value.Type().AssignableTo(paramType) {
			return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, formatType(value.Type()), formatType(paramType))
		}
		in[i] = value
	}
	return in, nil
}

// lookupMethodValue resolves a bound method on the resolved target.
type lookupMethodValue struct {
	target Value[any]
	name   string
}

// LookupMethodValue creates a value that resolves to the named method of
// the target's resolved receiver, bound to that receiver. Combine with
// NewMethodValue and a NilValue target to defer both the receiver lookup
// and the invocation.
func LookupMethodValue(target Value[any], name string) Value[reflect.Value] {
	if target == nil {
		usage("create lookup method value", ErrValueNil)
	}
	return lookupMethodValue{target: target, name: name}
}

func (v lookupMethodValue) Value() (reflect.Value, error) {
	target, err := v.target.Value()
	if err != nil {
		return reflect.Value{}, &ValueResolutionError{Op: "target", Cause: err}
	}
	if target == nil {
		return reflect.Value{}, &ValueResolutionError{Op: "method " + v.name, Cause: ErrTargetNil}
	}

	method := reflect.ValueOf(target).MethodByName(v.name)
	if !method.IsValid() {
		return reflect.Value{}, &ValueResolutionError{
			Op:    "method " + v.name,
			Cause: fmt.Errorf("%w: %s has no method %q", ErrMethodNotFound, formatType(reflect.TypeOf(target)), v.name),
		}
	}
	return method, nil
}

// fieldValue reads the current value of a named field on the resolved
// target. It is a leaf over mutable state: repeated resolution observes
// the field's current contents.
type fieldValue struct {
	target Value[any]
	name   string
}

// NewFieldValue creates a value that resolves to the named struct field of
// the target's resolved receiver. Pointers are dereferenced; unexported
// fields fail resolution as inaccessible rather than being read through
// unsafe means.
func NewFieldValue(target Value[any], name string) Value[any] {
	if target == nil {
		usage("create field value", ErrValueNil)
	}
	return fieldValue{target: target, name: name}
}

func (v fieldValue) Value() (any, error) {
	target, err := v.target.Value()
	if err != nil {
		return nil, &ValueResolutionError{Op: "target", Cause: err}
	}
	if target == nil {
		return nil, &ValueResolutionError{Op: "field " + v.name, Cause: ErrTargetNil}
	}

	rv := reflect.ValueOf(target)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, &ValueResolutionError{Op: "field " + v.name, Cause: ErrTargetNil}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, &ValueResolutionError{
			Op:    "field " + v.name,
			Cause: fmt.Errorf("%w: %s is not a struct", ErrFieldNotFound, formatType(rv.Type())),
		}
	}

	field := rv.FieldByName(v.name)
	if !field.IsValid() {
		return nil, &ValueResolutionError{
			Op:    "field " + v.name,
			Cause: fmt.Errorf("%w: %s has no field %q", ErrFieldNotFound, formatType(rv.Type()), v.name),
		}
	}
	if !field.CanInterface() {
		return nil, &ValueResolutionError{Op: "field " + v.name, Cause: ErrFieldInaccessible}
	}
	return field.Interface(), nil
}
